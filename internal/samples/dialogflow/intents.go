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

// Intent is a row of list-intents.
type Intent struct {
	ID             string `jsonapi:"primary,intents"`
	DisplayName    string `jsonapi:"attr,display-name"`
	Action         string `jsonapi:"attr,action"`
	RootFollowup   string `jsonapi:"attr,root-followup"`
	ParentFollowup string `jsonapi:"attr,parent-followup"`
	InputContexts  string `jsonapi:"attr,input-contexts"`
	OutputContexts string `jsonapi:"attr,output-contexts"`
}

// ListIntents returns the agent's intents.
func ListIntents(ctx context.Context, c *df.IntentsClient, project string) ([]*Intent, error) {
	var rows []*Intent
	it := c.ListIntents(ctx, &dialogflowpb.ListIntentsRequest{Parent: agentPath(project)})
	for {
		i, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list intents: %w", err)
		}

		out := make([]string, 0, len(i.GetOutputContexts()))
		for _, oc := range i.GetOutputContexts() {
			out = append(out, oc.GetName())
		}
		rows = append(rows, &Intent{
			ID:             path.Base(i.GetName()),
			DisplayName:    i.GetDisplayName(),
			Action:         i.GetAction(),
			RootFollowup:   i.GetRootFollowupIntentName(),
			ParentFollowup: i.GetParentFollowupIntentName(),
			InputContexts:  strings.Join(i.GetInputContextNames(), ","),
			OutputContexts: strings.Join(out, ","),
		})
	}
	return rows, nil
}

// CreateIntent creates an intent with one training phrase per part and a
// single text response carrying every message.
func CreateIntent(ctx context.Context, w io.Writer, c *df.IntentsClient, project, displayName string, trainingPhrases, messages []string) error {
	phrases := make([]*dialogflowpb.Intent_TrainingPhrase, 0, len(trainingPhrases))
	for _, p := range trainingPhrases {
		phrases = append(phrases, &dialogflowpb.Intent_TrainingPhrase{
			Parts: []*dialogflowpb.Intent_TrainingPhrase_Part{{Text: p}},
		})
	}

	intent, err := c.CreateIntent(ctx, &dialogflowpb.CreateIntentRequest{
		Parent: agentPath(project),
		Intent: &dialogflowpb.Intent{
			DisplayName:     displayName,
			TrainingPhrases: phrases,
			Messages: []*dialogflowpb.Intent_Message{{
				Message: &dialogflowpb.Intent_Message_Text_{
					Text: &dialogflowpb.Intent_Message_Text{Text: messages},
				},
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create intent %s: %w", displayName, err)
	}
	fmt.Fprintf(w, "Intent created: %s\n", intent.GetName())
	return nil
}

// DeleteIntent deletes an intent by id.
func DeleteIntent(ctx context.Context, w io.Writer, c *df.IntentsClient, project, intentID string) error {
	name := agentPath(project) + "/intents/" + intentID
	err := c.DeleteIntent(ctx, &dialogflowpb.DeleteIntentRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Intent %s not found.\n", intentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete intent %s: %w", intentID, err)
	}
	fmt.Fprintf(w, "Intent deleted: %s\n", name)
	return nil
}
