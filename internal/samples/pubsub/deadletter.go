// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"fmt"
	"io"
	"time"

	ps "cloud.google.com/go/pubsub"

	"github.com/staranto/gcpctl/internal/gcp"
)

// DefaultMaxDeliveryAttempts is how often a message is offered before it is
// forwarded to the dead letter topic.
const DefaultMaxDeliveryAttempts = 10

// CreateDeadLetterSubscription creates a subscription that forwards
// undeliverable messages to deadLetterTopicID.
func CreateDeadLetterSubscription(ctx context.Context, w io.Writer, c *ps.Client, subID, topicID, deadLetterTopicID string, maxAttempts int) error {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxDeliveryAttempts
	}
	dlt := topicName(c, deadLetterTopicID)
	s, err := c.CreateSubscription(ctx, subID, ps.SubscriptionConfig{
		Topic: c.Topic(topicID),
		DeadLetterPolicy: &ps.DeadLetterPolicy{
			DeadLetterTopic:     dlt,
			MaxDeliveryAttempts: maxAttempts,
		},
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Subscription %s already exists.\n", subID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Subscription %s created with dead letter topic %s\n", s.String(), dlt)
	return nil
}

// UpdateDeadLetterPolicy points the subscription at a new dead letter topic.
func UpdateDeadLetterPolicy(ctx context.Context, w io.Writer, c *ps.Client, subID, deadLetterTopicID string, maxAttempts int) error {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxDeliveryAttempts
	}
	dlt := topicName(c, deadLetterTopicID)
	s := c.Subscription(subID)
	_, err := s.Update(ctx, ps.SubscriptionConfigToUpdate{
		DeadLetterPolicy: &ps.DeadLetterPolicy{
			DeadLetterTopic:     dlt,
			MaxDeliveryAttempts: maxAttempts,
		},
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Subscription %s not found.\n", subID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Subscription %s updated with dead letter topic %s\n", s.String(), dlt)
	return nil
}

// RemoveDeadLetterPolicy clears the subscription's dead letter policy. An
// empty policy in the update clears the field.
func RemoveDeadLetterPolicy(ctx context.Context, w io.Writer, c *ps.Client, subID string) error {
	s := c.Subscription(subID)
	_, err := s.Update(ctx, ps.SubscriptionConfigToUpdate{
		DeadLetterPolicy: &ps.DeadLetterPolicy{},
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Subscription %s not found.\n", subID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Removed dead letter topic from subscription %s\n", s.String())
	return nil
}

// DeadLetterDeliveryAttempts receives messages until timeout and prints how
// often each one has been delivered.
func DeadLetterDeliveryAttempts(ctx context.Context, w io.Writer, c *ps.Client, subID string, timeout time.Duration, limit int) error {
	r := newReceiver(w, limit)
	err := r.receive(ctx, c.Subscription(subID), timeout, func(m *ps.Message) {
		r.printf("Received message %s\n", m.Data)
		if m.DeliveryAttempt != nil {
			r.printf("Delivery attempt %d\n", *m.DeliveryAttempt)
		}
		m.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to receive from %s: %w", subID, err)
	}
	fmt.Fprintln(w, "Done")
	return nil
}
