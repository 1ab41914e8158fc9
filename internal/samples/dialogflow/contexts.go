// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dialogflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	df "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// Context is a row of list-contexts.
type Context struct {
	ID            string `jsonapi:"primary,contexts"`
	LifespanCount int32  `jsonapi:"attr,lifespan-count"`
	Fields        string `jsonapi:"attr,fields"`
}

// ListContexts returns the active contexts of a session.
func ListContexts(ctx context.Context, c *df.ContextsClient, project, session string) ([]*Context, error) {
	var rows []*Context
	it := c.ListContexts(ctx, &dialogflowpb.ListContextsRequest{Parent: sessionPath(project, session)})
	for {
		dc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list contexts: %w", err)
		}

		fields := make([]string, 0, len(dc.GetParameters().GetFields()))
		for k, v := range dc.GetParameters().GetFields() {
			fields = append(fields, k+"="+v.GetStringValue())
		}
		sort.Strings(fields)
		rows = append(rows, &Context{
			ID:            path.Base(dc.GetName()),
			LifespanCount: dc.GetLifespanCount(),
			Fields:        strings.Join(fields, ","),
		})
	}
	return rows, nil
}

// CreateContext activates a context in a session for lifespan turns.
func CreateContext(ctx context.Context, w io.Writer, c *df.ContextsClient, project, session, contextID string, lifespan int32) error {
	parent := sessionPath(project, session)
	dc, err := c.CreateContext(ctx, &dialogflowpb.CreateContextRequest{
		Parent: parent,
		Context: &dialogflowpb.Context{
			Name:          parent + "/contexts/" + contextID,
			LifespanCount: lifespan,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create context %s: %w", contextID, err)
	}
	fmt.Fprintf(w, "Context created: %s\n", dc.GetName())
	return nil
}

// DeleteContext removes a context from a session.
func DeleteContext(ctx context.Context, w io.Writer, c *df.ContextsClient, project, session, contextID string) error {
	name := sessionPath(project, session) + "/contexts/" + contextID
	err := c.DeleteContext(ctx, &dialogflowpb.DeleteContextRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Context %s not found.\n", contextID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete context %s: %w", contextID, err)
	}
	fmt.Fprintf(w, "Context deleted: %s\n", name)
	return nil
}
