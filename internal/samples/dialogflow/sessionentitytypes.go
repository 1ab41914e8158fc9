// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dialogflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	df "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// SessionEntityType is a row of list-session-entity-types.
type SessionEntityType struct {
	DisplayName  string `jsonapi:"primary,session-entity-types"`
	OverrideMode string `jsonapi:"attr,override-mode"`
	Entities     int    `jsonapi:"attr,entities"`
}

// ListSessionEntityTypes returns the session's entity type overrides.
func ListSessionEntityTypes(ctx context.Context, c *df.SessionEntityTypesClient, project, session string) ([]*SessionEntityType, error) {
	var rows []*SessionEntityType
	it := c.ListSessionEntityTypes(ctx, &dialogflowpb.ListSessionEntityTypesRequest{Parent: sessionPath(project, session)})
	for {
		set, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list session entity types: %w", err)
		}
		rows = append(rows, &SessionEntityType{
			DisplayName:  path.Base(set.GetName()),
			OverrideMode: set.GetEntityOverrideMode().String(),
			Entities:     len(set.GetEntities()),
		})
	}
	return rows, nil
}

// CreateSessionEntityType overrides the agent's entity type for one session.
// Every value is its own synonym.
func CreateSessionEntityType(ctx context.Context, w io.Writer, c *df.SessionEntityTypesClient, project, session, displayName string, values []string) error {
	entities := make([]*dialogflowpb.EntityType_Entity, 0, len(values))
	for _, v := range values {
		entities = append(entities, &dialogflowpb.EntityType_Entity{Value: v, Synonyms: []string{v}})
	}

	parent := sessionPath(project, session)
	set, err := c.CreateSessionEntityType(ctx, &dialogflowpb.CreateSessionEntityTypeRequest{
		Parent: parent,
		SessionEntityType: &dialogflowpb.SessionEntityType{
			Name:               parent + "/entityTypes/" + displayName,
			EntityOverrideMode: dialogflowpb.SessionEntityType_ENTITY_OVERRIDE_MODE_OVERRIDE,
			Entities:           entities,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create session entity type %s: %w", displayName, err)
	}
	fmt.Fprintf(w, "Session entity type created: %s\n", set.GetName())
	return nil
}

// DeleteSessionEntityType removes a session's entity type override.
func DeleteSessionEntityType(ctx context.Context, w io.Writer, c *df.SessionEntityTypesClient, project, session, displayName string) error {
	name := sessionPath(project, session) + "/entityTypes/" + displayName
	err := c.DeleteSessionEntityType(ctx, &dialogflowpb.DeleteSessionEntityTypeRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Session entity type %s not found.\n", displayName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete session entity type %s: %w", displayName, err)
	}
	fmt.Fprintf(w, "Session entity type deleted: %s\n", name)
	return nil
}
