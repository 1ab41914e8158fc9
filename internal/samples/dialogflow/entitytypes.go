// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dialogflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	df "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// EntityType is a row of list-entity-types.
type EntityType struct {
	ID          string `jsonapi:"primary,entity-types"`
	DisplayName string `jsonapi:"attr,display-name"`
	Kind        string `jsonapi:"attr,kind"`
	Entities    int    `jsonapi:"attr,entities"`
}

// Entity is a row of list-entities.
type Entity struct {
	Value    string `jsonapi:"primary,entities"`
	Synonyms string `jsonapi:"attr,synonyms"`
}

// ParseKind maps map or list, with or without the KIND_ prefix, to an entity
// type kind.
func ParseKind(s string) (dialogflowpb.EntityType_Kind, error) {
	k := strings.ToUpper(s)
	if !strings.HasPrefix(k, "KIND_") {
		k = "KIND_" + k
	}
	switch k {
	case "KIND_MAP":
		return dialogflowpb.EntityType_KIND_MAP, nil
	case "KIND_LIST":
		return dialogflowpb.EntityType_KIND_LIST, nil
	}
	return dialogflowpb.EntityType_KIND_UNSPECIFIED, fmt.Errorf("invalid kind %s, must be one of: map, list", s)
}

// ListEntityTypes returns the agent's entity types.
func ListEntityTypes(ctx context.Context, c *df.EntityTypesClient, project string) ([]*EntityType, error) {
	var rows []*EntityType
	it := c.ListEntityTypes(ctx, &dialogflowpb.ListEntityTypesRequest{Parent: agentPath(project)})
	for {
		et, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list entity types: %w", err)
		}
		rows = append(rows, &EntityType{
			ID:          path.Base(et.GetName()),
			DisplayName: et.GetDisplayName(),
			Kind:        et.GetKind().String(),
			Entities:    len(et.GetEntities()),
		})
	}
	return rows, nil
}

// CreateEntityType creates an entity type of the given kind.
func CreateEntityType(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project, displayName string, kind dialogflowpb.EntityType_Kind) error {
	et, err := c.CreateEntityType(ctx, &dialogflowpb.CreateEntityTypeRequest{
		Parent:     agentPath(project),
		EntityType: &dialogflowpb.EntityType{DisplayName: displayName, Kind: kind},
	})
	if err != nil {
		return fmt.Errorf("failed to create entity type %s: %w", displayName, err)
	}
	fmt.Fprintf(w, "Entity type created: %s\n", et.GetName())
	return nil
}

// DeleteEntityType deletes an entity type by id.
func DeleteEntityType(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project, entityTypeID string) error {
	name := entityTypePath(project, entityTypeID)
	err := c.DeleteEntityType(ctx, &dialogflowpb.DeleteEntityTypeRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Entity type %s not found.\n", entityTypeID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete entity type %s: %w", entityTypeID, err)
	}
	fmt.Fprintf(w, "Entity type deleted: %s\n", name)
	return nil
}

// ListEntities returns the entities of an entity type.
func ListEntities(ctx context.Context, c *df.EntityTypesClient, project, entityTypeID string) ([]*Entity, error) {
	et, err := c.GetEntityType(ctx, &dialogflowpb.GetEntityTypeRequest{Name: entityTypePath(project, entityTypeID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get entity type %s: %w", entityTypeID, err)
	}

	rows := make([]*Entity, 0, len(et.GetEntities()))
	for _, e := range et.GetEntities() {
		rows = append(rows, &Entity{
			Value:    e.GetValue(),
			Synonyms: strings.Join(e.GetSynonyms(), ","),
		})
	}
	return rows, nil
}

// CreateEntity adds a value to an entity type. With no synonyms the value is
// its own synonym.
func CreateEntity(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project, entityTypeID, value string, synonyms []string) error {
	if len(synonyms) == 0 {
		synonyms = []string{value}
	}

	op, err := c.BatchCreateEntities(ctx, &dialogflowpb.BatchCreateEntitiesRequest{
		Parent:   entityTypePath(project, entityTypeID),
		Entities: []*dialogflowpb.EntityType_Entity{{Value: value, Synonyms: synonyms}},
	})
	if err != nil {
		return fmt.Errorf("failed to create entity %s: %w", value, err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to create entity %s: %w", value, err)
	}
	fmt.Fprintf(w, "Entity created: %s\n", value)
	return nil
}

// DeleteEntity removes a value from an entity type.
func DeleteEntity(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project, entityTypeID, value string) error {
	op, err := c.BatchDeleteEntities(ctx, &dialogflowpb.BatchDeleteEntitiesRequest{
		Parent:       entityTypePath(project, entityTypeID),
		EntityValues: []string{value},
	})
	if err != nil {
		return fmt.Errorf("failed to delete entity %s: %w", value, err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to delete entity %s: %w", value, err)
	}
	fmt.Fprintf(w, "Entity deleted: %s\n", value)
	return nil
}
