// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package pubsub holds the Cloud Pub/Sub samples: topic and subscription
// administration, publishing, receiving, dead letter policies and IAM.
package pubsub

import (
	"context"
	"fmt"

	ps "cloud.google.com/go/pubsub"

	"github.com/staranto/gcpctl/internal/gcp"
)

// NewClient returns a Pub/Sub client for the factory's project.
func NewClient(ctx context.Context, f *gcp.Factory) (*ps.Client, error) {
	project, err := f.Project(ctx)
	if err != nil {
		return nil, err
	}
	c, err := ps.NewClient(ctx, project, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return c, nil
}

func topicName(c *ps.Client, id string) string {
	return fmt.Sprintf("projects/%s/topics/%s", c.Project(), id)
}

func subscriptionName(c *ps.Client, id string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", c.Project(), id)
}
