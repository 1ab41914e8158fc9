// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/iam"
	ps "cloud.google.com/go/pubsub"
)

const (
	// PublisherRole is granted by set-topic-policy.
	PublisherRole iam.RoleName = "roles/pubsub.publisher"
	// SubscriberRole is granted by set-subscription-policy.
	SubscriberRole iam.RoleName = "roles/pubsub.subscriber"
)

var (
	topicPermissions = []string{
		"pubsub.topics.attachSubscription",
		"pubsub.topics.publish",
		"pubsub.topics.update",
	}
	subscriptionPermissions = []string{
		"pubsub.subscriptions.consume",
		"pubsub.subscriptions.update",
	}
)

func printPolicy(w io.Writer, p *iam.Policy) {
	for _, role := range p.Roles() {
		fmt.Fprintf(w, "Role: %s\n", role)
		fmt.Fprintf(w, "\tMembers: %s\n", strings.Join(p.Members(role), ", "))
	}
	fmt.Fprintf(w, "etag: %s\n", base64.StdEncoding.EncodeToString(p.InternalProto.GetEtag()))
}

func getPolicy(ctx context.Context, w io.Writer, h *iam.Handle, name string) error {
	p, err := h.Policy(ctx)
	if err != nil {
		return fmt.Errorf("failed to get policy of %s: %w", name, err)
	}
	printPolicy(w, p)
	return nil
}

// addMember runs a read-modify-write of the policy. The etag read with the
// policy guards against concurrent writers.
func addMember(ctx context.Context, w io.Writer, h *iam.Handle, name, member string, role iam.RoleName) error {
	p, err := h.Policy(ctx)
	if err != nil {
		return fmt.Errorf("failed to get policy of %s: %w", name, err)
	}
	p.Add(member, role)
	if err := h.SetPolicy(ctx, p); err != nil {
		return fmt.Errorf("failed to set policy of %s: %w", name, err)
	}
	fmt.Fprintf(w, "User %s added to policy for %s\n", member, name)
	return nil
}

func testPermissions(ctx context.Context, w io.Writer, h *iam.Handle, name string, perms []string) error {
	allowed, err := h.TestPermissions(ctx, perms)
	if err != nil {
		return fmt.Errorf("failed to test permissions on %s: %w", name, err)
	}
	for _, p := range allowed {
		fmt.Fprintf(w, "Permission: %s\n", p)
	}
	return nil
}

// GetTopicPolicy prints the topic's IAM policy.
func GetTopicPolicy(ctx context.Context, w io.Writer, c *ps.Client, topicID string) error {
	return getPolicy(ctx, w, c.Topic(topicID).IAM(), topicID)
}

// SetTopicPolicy grants member the publisher role on the topic. member
// carries its type prefix, e.g. user:someone@example.com.
func SetTopicPolicy(ctx context.Context, w io.Writer, c *ps.Client, topicID, member string) error {
	return addMember(ctx, w, c.Topic(topicID).IAM(), topicID, member, PublisherRole)
}

// TestTopicPermissions prints which topic permissions the caller holds.
func TestTopicPermissions(ctx context.Context, w io.Writer, c *ps.Client, topicID string) error {
	return testPermissions(ctx, w, c.Topic(topicID).IAM(), topicID, topicPermissions)
}

// GetSubscriptionPolicy prints the subscription's IAM policy.
func GetSubscriptionPolicy(ctx context.Context, w io.Writer, c *ps.Client, subID string) error {
	return getPolicy(ctx, w, c.Subscription(subID).IAM(), subID)
}

// SetSubscriptionPolicy grants member the subscriber role on the
// subscription.
func SetSubscriptionPolicy(ctx context.Context, w io.Writer, c *ps.Client, subID, member string) error {
	return addMember(ctx, w, c.Subscription(subID).IAM(), subID, member, SubscriberRole)
}

// TestSubscriptionPermissions prints which subscription permissions the
// caller holds.
func TestSubscriptionPermissions(ctx context.Context, w io.Writer, c *ps.Client, subID string) error {
	return testPermissions(ctx, w, c.Subscription(subID).IAM(), subID, subscriptionPermissions)
}
