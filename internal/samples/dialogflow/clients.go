// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package dialogflow holds the Dialogflow ES samples: intent detection from
// text, audio and audio streams, and management of intents, entity types,
// entities, contexts and session entity types.
package dialogflow

import (
	"context"
	"fmt"

	df "cloud.google.com/go/dialogflow/apiv2"
	"github.com/google/uuid"

	"github.com/staranto/gcpctl/internal/gcp"
)

// DefaultLanguage is the language code used when none is given.
const DefaultLanguage = "en-US"

// NewSessionID returns a random session id.
func NewSessionID() string {
	return uuid.NewString()
}

func agentPath(project string) string {
	return fmt.Sprintf("projects/%s/agent", project)
}

func sessionPath(project, session string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", project, session)
}

func entityTypePath(project, entityTypeID string) string {
	return fmt.Sprintf("projects/%s/agent/entityTypes/%s", project, entityTypeID)
}

// NewSessionsClient returns a client for intent detection.
func NewSessionsClient(ctx context.Context, f *gcp.Factory) (*df.SessionsClient, error) {
	c, err := df.NewSessionsClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions client: %w", err)
	}
	return c, nil
}

// NewIntentsClient returns a client for intents.
func NewIntentsClient(ctx context.Context, f *gcp.Factory) (*df.IntentsClient, error) {
	c, err := df.NewIntentsClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create intents client: %w", err)
	}
	return c, nil
}

// NewEntityTypesClient returns a client for entity types and their entities.
func NewEntityTypesClient(ctx context.Context, f *gcp.Factory) (*df.EntityTypesClient, error) {
	c, err := df.NewEntityTypesClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity types client: %w", err)
	}
	return c, nil
}

// NewContextsClient returns a client for session contexts.
func NewContextsClient(ctx context.Context, f *gcp.Factory) (*df.ContextsClient, error) {
	c, err := df.NewContextsClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create contexts client: %w", err)
	}
	return c, nil
}

// NewSessionEntityTypesClient returns a client for session entity types.
func NewSessionEntityTypesClient(ctx context.Context, f *gcp.Factory) (*df.SessionEntityTypesClient, error) {
	c, err := df.NewSessionEntityTypesClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session entity types client: %w", err)
	}
	return c, nil
}
