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
	vkit "cloud.google.com/go/pubsub/apiv1"
	"github.com/apex/log"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"

	"github.com/staranto/gcpctl/internal/gcp"
)

// PublishOptions shape a publish run.
type PublishOptions struct {
	// Count is the number of copies of the message to publish. Zero means one.
	Count int
	// Rate caps publishing at this many messages per second. Zero is unlimited.
	Rate float64
	// OrderingKey, when set, turns on message ordering for the topic.
	OrderingKey string
	// Compress enables gRPC compression of publish batches.
	Compress bool
	// Attributes are attached to every message.
	Attributes map[string]string
}

func (o PublishOptions) limiter() *rate.Limiter {
	if o.Rate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(o.Rate), 1)
}

// Publish publishes message to the topic and waits for every result.
func Publish(ctx context.Context, w io.Writer, c *ps.Client, topicID, message string, opts PublishOptions) error {
	if opts.Count < 0 {
		return fmt.Errorf("invalid count %d", opts.Count)
	}
	count := max(opts.Count, 1)

	t := c.Topic(topicID)
	defer t.Stop()
	t.EnableMessageOrdering = opts.OrderingKey != ""
	t.PublishSettings.EnableCompression = opts.Compress

	lim := opts.limiter()
	results := make([]*ps.PublishResult, 0, count)
	for i := 0; i < count; i++ {
		if err := lim.Wait(ctx); err != nil {
			return fmt.Errorf("failed to pace publish: %w", err)
		}
		results = append(results, t.Publish(ctx, &ps.Message{
			Data:        []byte(message),
			Attributes:  opts.Attributes,
			OrderingKey: opts.OrderingKey,
		}))
	}

	var errs []error
	for _, r := range results {
		id, err := r.Get(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "Message published: %s\n", id)
	}
	if len(errs) > 0 {
		if opts.OrderingKey != "" {
			t.ResumePublish(opts.OrderingKey)
		}
		return fmt.Errorf("failed to publish %d of %d messages: %w", len(errs), count, errors.Join(errs...))
	}
	log.Debugf("published %d messages to %s", count, topicID)
	return nil
}

// retryConfig retries publishes on transient errors with exponential backoff.
func retryConfig() *ps.ClientConfig {
	return &ps.ClientConfig{
		PublisherCallOptions: &vkit.PublisherCallOptions{
			Publish: []gax.CallOption{
				gax.WithRetry(func() gax.Retryer {
					return gax.OnCodes([]codes.Code{
						codes.Aborted,
						codes.Canceled,
						codes.Internal,
						codes.ResourceExhausted,
						codes.Unknown,
						codes.Unavailable,
						codes.DeadlineExceeded,
					}, gax.Backoff{
						Initial:    250 * time.Millisecond,
						Max:        60 * time.Second,
						Multiplier: 1.45,
					})
				}),
			},
		},
	}
}

// PublishWithRetrySettings publishes one message through a client whose
// publish RPC carries custom retry settings.
func PublishWithRetrySettings(ctx context.Context, w io.Writer, f *gcp.Factory, topicID, message string) error {
	project, err := f.Project(ctx)
	if err != nil {
		return err
	}
	c, err := ps.NewClientWithConfig(ctx, project, retryConfig(), f.ClientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create pubsub client: %w", err)
	}
	defer c.Close()

	t := c.Topic(topicID)
	defer t.Stop()
	id, err := t.Publish(ctx, &ps.Message{Data: []byte(message)}).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topicID, err)
	}
	fmt.Fprintf(w, "Message published with retry settings: %s\n", id)
	return nil
}
