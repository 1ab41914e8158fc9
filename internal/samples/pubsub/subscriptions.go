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

// SubscriptionRow is a row of list-subscriptions.
type SubscriptionRow struct {
	ID              string `jsonapi:"primary,subscriptions"`
	Name            string `jsonapi:"attr,name"`
	Topic           string `jsonapi:"attr,topic"`
	AckDeadline     string `jsonapi:"attr,ack-deadline"`
	Filter          string `jsonapi:"attr,filter"`
	ExactlyOnce     bool   `jsonapi:"attr,exactly-once"`
	Ordering        bool   `jsonapi:"attr,ordering"`
	PushEndpoint    string `jsonapi:"attr,push-endpoint"`
	DeadLetterTopic string `jsonapi:"attr,dead-letter-topic"`
	Detached        bool   `jsonapi:"attr,detached"`
}

// ListSubscriptions returns the project's subscriptions.
func ListSubscriptions(ctx context.Context, c *ps.Client) ([]*SubscriptionRow, error) {
	var rows []*SubscriptionRow
	it := c.Subscriptions(ctx)
	for {
		s, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list subscriptions: %w", err)
		}

		cfg, err := s.Config(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get subscription %s: %w", s.ID(), err)
		}
		row := &SubscriptionRow{
			ID:           s.ID(),
			Name:         s.String(),
			AckDeadline:  cfg.AckDeadline.String(),
			Filter:       cfg.Filter,
			ExactlyOnce:  cfg.EnableExactlyOnceDelivery,
			Ordering:     cfg.EnableMessageOrdering,
			PushEndpoint: cfg.PushConfig.Endpoint,
			Detached:     cfg.Detached,
		}
		if cfg.Topic != nil {
			row.Topic = cfg.Topic.String()
		}
		if cfg.DeadLetterPolicy != nil {
			row.DeadLetterTopic = cfg.DeadLetterPolicy.DeadLetterTopic
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// createSubscription creates subID on topicID with cfg and reports the
// outcome with verb. cfg.Topic is filled in here.
func createSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID string, cfg ps.SubscriptionConfig, verb string) (*ps.Subscription, error) {
	cfg.Topic = c.Topic(topicID)
	s, err := c.CreateSubscription(ctx, subID, cfg)
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Subscription %s already exists.\n", subID)
		return nil, nil
	}
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Topic %s not found.\n", topicID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "%s: %s\n", verb, s.String())
	return s, nil
}

// CreateSubscription creates a pull subscription. With ordering set,
// messages that share an ordering key are delivered in publish order.
func CreateSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID string, ackDeadline time.Duration, ordering bool) error {
	verb := "Subscription created"
	if ordering {
		verb = "Created subscription with ordering"
	}
	_, err := createSubscription(ctx, w, c, subID, topicID, ps.SubscriptionConfig{
		AckDeadline:           ackDeadline,
		EnableMessageOrdering: ordering,
	}, verb)
	return err
}

// CreateSubscriptionWithFilter creates a subscription that only receives
// messages matching filter, e.g. attributes.author="unknown".
func CreateSubscriptionWithFilter(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID, filter string) error {
	s, err := createSubscription(ctx, w, c, subID, topicID, ps.SubscriptionConfig{Filter: filter}, "Subscription created")
	if err != nil || s == nil {
		return err
	}
	cfg, err := s.Config(ctx)
	if err != nil {
		return fmt.Errorf("failed to get subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "\tFilter: %s\n", cfg.Filter)
	return nil
}

// CreateSubscriptionWithExactlyOnce creates a subscription with exactly once
// delivery enabled.
func CreateSubscriptionWithExactlyOnce(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID string) error {
	s, err := createSubscription(ctx, w, c, subID, topicID, ps.SubscriptionConfig{
		EnableExactlyOnceDelivery: true,
	}, "Subscription created")
	if err != nil || s == nil {
		return err
	}
	cfg, err := s.Config(ctx)
	if err != nil {
		return fmt.Errorf("failed to get subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Subscription created with exactly once delivery status: %t\n", cfg.EnableExactlyOnceDelivery)
	return nil
}

// CreatePushSubscription creates a push subscription to endpoint. An
// unwrapped subscription delivers the raw payload instead of the Pub/Sub
// JSON envelope.
func CreatePushSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID, endpoint string, unwrapped bool) error {
	verb := "Subscription created"
	push := ps.PushConfig{Endpoint: endpoint}
	if unwrapped {
		verb = "Unwrapped push subscription created"
		push.Wrapper = &ps.NoWrapper{WriteMetadata: true}
	}
	_, err := createSubscription(ctx, w, c, subID, topicID, ps.SubscriptionConfig{PushConfig: push}, verb)
	return err
}

// CreateBigQuerySubscription creates a subscription that writes messages
// into table, given as project.dataset.table.
func CreateBigQuerySubscription(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID, table string) error {
	_, err := createSubscription(ctx, w, c, subID, topicID, ps.SubscriptionConfig{
		BigQueryConfig: ps.BigQueryConfig{
			Table:         table,
			WriteMetadata: true,
		},
	}, "Subscription created")
	return err
}

// CreateStorageSubscription creates a subscription that batches messages
// into Avro files in bucket.
func CreateStorageSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID, bucket string) error {
	_, err := createSubscription(ctx, w, c, subID, topicID, ps.SubscriptionConfig{
		CloudStorageConfig: ps.CloudStorageConfig{
			Bucket:         bucket,
			FilenamePrefix: "log_events_",
			FilenameSuffix: ".avro",
			MaxBytes:       1e8,
			MaxDuration:    time.Minute,
			OutputFormat:   &ps.CloudStorageOutputFormatAvroConfig{WriteMetadata: true},
		},
	}, "Subscription created")
	return err
}

// DetachSubscription detaches a subscription from its topic. Pending
// messages are dropped and pulls fail afterwards.
func DetachSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID string) error {
	name := subscriptionName(c, subID)
	_, err := c.DetachSubscription(ctx, name)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Subscription %s not found.\n", subID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to detach subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Subscription detached: %s\n", name)
	return nil
}

// DeleteSubscription deletes a subscription.
func DeleteSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID string) error {
	s := c.Subscription(subID)
	err := s.Delete(ctx)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Subscription %s not found.\n", subID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Subscription deleted: %s\n", s.String())
	return nil
}
