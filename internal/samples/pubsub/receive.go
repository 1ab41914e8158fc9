// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	ps "cloud.google.com/go/pubsub"
	"github.com/apex/log"
)

// DefaultReceiveTimeout bounds a receive when no timeout is given.
const DefaultReceiveTimeout = 10 * time.Second

// receiver serialises output from concurrent Receive callbacks and stops
// the receive once limit messages have been handled.
type receiver struct {
	mu     sync.Mutex
	w      io.Writer
	limit  int
	count  int
	cancel context.CancelFunc
}

func newReceiver(w io.Writer, limit int) *receiver {
	return &receiver{w: w, limit: limit}
}

func (r *receiver) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// done counts a handled message and ends the receive at the limit.
func (r *receiver) done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if r.limit > 0 && r.count >= r.limit {
		r.cancel()
	}
}

// receive runs handle for each message until timeout passes or the limit
// is reached. Both are a normal end of the receive.
func (r *receiver) receive(ctx context.Context, s *ps.Subscription, timeout time.Duration, handle func(*ps.Message)) error {
	if timeout <= 0 {
		timeout = DefaultReceiveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	r.cancel = cancel

	err := s.Receive(ctx, func(_ context.Context, m *ps.Message) {
		handle(m)
		r.done()
	})
	log.Debugf("received %d messages from %s", r.count, s.ID())
	return err
}

// PullMessages receives and acknowledges messages until timeout passes or
// limit messages arrived. A limit of zero drains until the timeout.
func PullMessages(ctx context.Context, w io.Writer, c *ps.Client, subID string, timeout time.Duration, limit int) error {
	r := newReceiver(w, limit)
	err := r.receive(ctx, c.Subscription(subID), timeout, func(m *ps.Message) {
		r.printf("PubSub Message: %s\n", m.Data)
		m.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to receive from %s: %w", subID, err)
	}
	fmt.Fprintf(w, "Received %d messages\n", r.count)
	return nil
}

// SubscribeExactlyOnce receives from an exactly once subscription and waits
// for the server to confirm every acknowledgement.
func SubscribeExactlyOnce(ctx context.Context, w io.Writer, c *ps.Client, subID string, timeout time.Duration, limit int) error {
	r := newReceiver(w, limit)
	err := r.receive(ctx, c.Subscription(subID), timeout, func(m *ps.Message) {
		status, err := m.AckWithResult().Get(ctx)
		if err != nil {
			r.printf("Failed to acknowledge message %s: %v\n", m.ID, err)
			return
		}
		if status != ps.AcknowledgeStatusSuccess {
			r.printf("Message %s acknowledge status: %d\n", m.ID, status)
			return
		}
		r.printf("Acknowledged message: %s\n", m.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to receive from %s: %w", subID, err)
	}
	return nil
}

// SubscribeOrdering receives from an ordered subscription and prints each
// message with its ordering key.
func SubscribeOrdering(ctx context.Context, w io.Writer, c *ps.Client, subID string, timeout time.Duration, limit int) error {
	s := c.Subscription(subID)
	cfg, err := s.Config(ctx)
	if err != nil {
		return fmt.Errorf("failed to get subscription %s: %w", subID, err)
	}
	if !cfg.EnableMessageOrdering {
		return fmt.Errorf("subscription %s does not have message ordering enabled", subID)
	}

	r := newReceiver(w, limit)
	err = r.receive(ctx, s, timeout, func(m *ps.Message) {
		r.printf("Received ordered message %s (key=%s)\n", m.Data, m.OrderingKey)
		m.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to receive from %s: %w", subID, err)
	}
	return nil
}
