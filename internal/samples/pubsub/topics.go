// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ps "cloud.google.com/go/pubsub"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// TopicRow is a row of list-topics.
type TopicRow struct {
	ID        string `jsonapi:"primary,topics"`
	Name      string `jsonapi:"attr,name"`
	KMSKey    string `jsonapi:"attr,kms-key"`
	Retention string `jsonapi:"attr,retention"`
}

// ListTopics returns the project's topics.
func ListTopics(ctx context.Context, c *ps.Client) ([]*TopicRow, error) {
	var rows []*TopicRow
	it := c.Topics(ctx)
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list topics: %w", err)
		}

		cfg, err := t.Config(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get topic %s: %w", t.ID(), err)
		}
		row := &TopicRow{
			ID:     t.ID(),
			Name:   t.String(),
			KMSKey: cfg.KMSKeyName,
		}
		if d, ok := cfg.RetentionDuration.(time.Duration); ok {
			row.Retention = d.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CreateTopic creates a topic.
func CreateTopic(ctx context.Context, w io.Writer, c *ps.Client, topicID string) error {
	t, err := c.CreateTopic(ctx, topicID)
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Topic %s already exists.\n", topicID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topicID, err)
	}
	fmt.Fprintf(w, "Topic created: %s\n", t.String())
	return nil
}

// GetTopic prints one topic.
func GetTopic(ctx context.Context, w io.Writer, c *ps.Client, topicID string) error {
	t := c.Topic(topicID)
	cfg, err := t.Config(ctx)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Topic %s not found.\n", topicID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get topic %s: %w", topicID, err)
	}
	fmt.Fprintf(w, "Topic: %s\n", t.String())
	for k, v := range cfg.Labels {
		fmt.Fprintf(w, "\tLabel: %s=%s\n", k, v)
	}
	if cfg.KMSKeyName != "" {
		fmt.Fprintf(w, "\tKMS key: %s\n", cfg.KMSKeyName)
	}
	return nil
}

// DeleteTopic deletes a topic. Its subscriptions survive and stop
// receiving messages.
func DeleteTopic(ctx context.Context, w io.Writer, c *ps.Client, topicID string) error {
	t := c.Topic(topicID)
	err := t.Delete(ctx)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Topic %s not found.\n", topicID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete topic %s: %w", topicID, err)
	}
	fmt.Fprintf(w, "Topic deleted: %s\n", t.String())
	return nil
}
