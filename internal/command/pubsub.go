// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"time"

	ps "cloud.google.com/go/pubsub"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	pssample "github.com/staranto/gcpctl/internal/samples/pubsub"
)

var openPubSub = FromFactory(pssample.NewClient)

type pubsubFunc func(context.Context, io.Writer, *ps.Client, *cli.Command) error

func pubsubSample(name, usage string, args []string, fn pubsubFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  args,
		Run: With(openPubSub, func(ctx context.Context, s *Session, cmd *cli.Command, c *ps.Client) error {
			return fn(ctx, s.Out, c, cmd)
		}),
	}
}

// idPubSubSample builds a sample over one topic or subscription id.
func idPubSubSample(name, usage, id string, fn func(context.Context, io.Writer, *ps.Client, string) error) Sample {
	return pubsubSample(name, usage, []string{id}, func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
		return fn(ctx, w, c, arg(cmd, 0))
	})
}

// subTopicSample builds a sample over <subscription> <topic> and an optional
// third value.
func subTopicSample(name, usage string, extra []string, fn func(context.Context, io.Writer, *ps.Client, string, string, *cli.Command) error) Sample {
	return pubsubSample(name, usage, append([]string{"subscription", "topic"}, extra...),
		func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
			return fn(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cmd)
		})
}

func receiveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "stop receiving after this long",
			Value:   pssample.DefaultReceiveTimeout,
			Sources: cli.NewValueSourceChain(configSources("pubsub", "timeout")...),
		},
		&cli.IntFlag{Name: "limit", Usage: "stop after this many messages. 0 is unlimited"},
	}
}

// receiveSample builds a sample over <subscription> that receives until
// --timeout or --limit.
func receiveSample(name, usage string, fn func(context.Context, io.Writer, *ps.Client, string, time.Duration, int) error) Sample {
	return pubsubSample(name, usage, []string{"subscription"}, func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
		return fn(ctx, w, c, arg(cmd, 0), cmd.Duration("timeout"), cmd.Int("limit"))
	}).WithFlags(receiveFlags()...)
}

func maxAttemptsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "max-delivery-attempts",
		Usage: "deliveries before a message is dead-lettered",
		Value: pssample.DefaultMaxDeliveryAttempts,
		Validator: func(v int) error {
			if v < 5 || v > 100 {
				return fmt.Errorf("max delivery attempts must be between 5 and 100, got %d", v)
			}
			return nil
		},
	}
}

// PubSubCommandBuilder constructs the "pubsub" command group.
func PubSubCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "pubsub",
		Usage: "Cloud Pub/Sub samples",
		Meta:  meta,
		Samples: []Sample{
			// Topics.
			List("list-topics", "list the project's topics", nil, nil,
				ListWith(openPubSub, func(ctx context.Context, _ *Session, _ *cli.Command, c *ps.Client) ([]*pssample.TopicRow, error) {
					return pssample.ListTopics(ctx, c)
				})),
			idPubSubSample("create-topic", "create a topic", "topic", pssample.CreateTopic),
			idPubSubSample("get-topic", "print a topic", "topic", pssample.GetTopic),
			idPubSubSample("delete-topic", "delete a topic", "topic", pssample.DeleteTopic),
			pubsubSample("publish", "publish a message", []string{"topic", "message"},
				func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
					attrs, err := parseMetadata(cmd.StringSlice("attribute"))
					if err != nil {
						return err
					}
					return pssample.Publish(ctx, w, c, arg(cmd, 0), arg(cmd, 1), pssample.PublishOptions{
						Count:       cmd.Int("count"),
						Rate:        cmd.Float("rate"),
						OrderingKey: cmd.String("ordering-key"),
						Compress:    cmd.Bool("compress"),
						Attributes:  attrs,
					})
				}).WithFlags(
				&cli.IntFlag{Name: "count", Usage: "copies of the message to publish", Value: 1},
				&cli.FloatFlag{Name: "rate", Usage: "messages per second. 0 is unlimited"},
				&cli.StringFlag{Name: "ordering-key", Usage: "publish in order under this key"},
				&cli.BoolFlag{Name: "compress", Usage: "compress publish batches"},
				&cli.StringSliceFlag{Name: "attribute", Usage: "key=value message attribute, repeatable"},
			),
			{
				Name:  "publish-with-retry-settings",
				Usage: "publish through a client with custom retry settings",
				Args:  []string{"topic", "message"},
				Run: func(ctx context.Context, s *Session, cmd *cli.Command) error {
					return pssample.PublishWithRetrySettings(ctx, s.Out, s.Factory, arg(cmd, 0), arg(cmd, 1))
				},
			},

			// Subscriptions.
			List("list-subscriptions", "list the project's subscriptions", nil, nil,
				ListWith(openPubSub, func(ctx context.Context, _ *Session, _ *cli.Command, c *ps.Client) ([]*pssample.SubscriptionRow, error) {
					return pssample.ListSubscriptions(ctx, c)
				})),
			subTopicSample("create-subscription", "create a pull subscription", nil,
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, cmd *cli.Command) error {
					return pssample.CreateSubscription(ctx, w, c, sub, topic, cmd.Duration("ack-deadline"), cmd.Bool("ordering"))
				}).WithFlags(
				&cli.DurationFlag{Name: "ack-deadline", Usage: "acknowledgement deadline", Value: 20 * time.Second},
				&cli.BoolFlag{Name: "ordering", Usage: "deliver messages in ordering key order"},
			),
			subTopicSample("create-subscription-with-filter", "create a subscription that filters on attributes", []string{"filter"},
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, cmd *cli.Command) error {
					return pssample.CreateSubscriptionWithFilter(ctx, w, c, sub, topic, arg(cmd, 2))
				}),
			subTopicSample("create-subscription-with-exactly-once", "create an exactly-once subscription", nil,
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, _ *cli.Command) error {
					return pssample.CreateSubscriptionWithExactlyOnce(ctx, w, c, sub, topic)
				}),
			subTopicSample("create-push-subscription", "create a push subscription", []string{"endpoint"},
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, cmd *cli.Command) error {
					return pssample.CreatePushSubscription(ctx, w, c, sub, topic, arg(cmd, 2), cmd.Bool("unwrapped"))
				}).WithFlags(&cli.BoolFlag{Name: "unwrapped", Usage: "push the raw payload without the envelope"}),
			subTopicSample("create-bigquery-subscription", "create a subscription that writes to a table", []string{"table"},
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, cmd *cli.Command) error {
					return pssample.CreateBigQuerySubscription(ctx, w, c, sub, topic, arg(cmd, 2))
				}),
			subTopicSample("create-storage-subscription", "create a subscription that writes to a bucket", []string{"bucket"},
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, cmd *cli.Command) error {
					return pssample.CreateStorageSubscription(ctx, w, c, sub, topic, arg(cmd, 2))
				}),
			subTopicSample("create-dead-letter-subscription", "create a subscription with a dead-letter topic", []string{"dead-letter-topic"},
				func(ctx context.Context, w io.Writer, c *ps.Client, sub, topic string, cmd *cli.Command) error {
					return pssample.CreateDeadLetterSubscription(ctx, w, c, sub, topic, arg(cmd, 2), cmd.Int("max-delivery-attempts"))
				}).WithFlags(maxAttemptsFlag()),
			pubsubSample("update-dead-letter-policy", "change a subscription's dead-letter policy", []string{"subscription", "dead-letter-topic"},
				func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
					return pssample.UpdateDeadLetterPolicy(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cmd.Int("max-delivery-attempts"))
				}).WithFlags(maxAttemptsFlag()),
			idPubSubSample("remove-dead-letter-policy", "drop a subscription's dead-letter policy", "subscription", pssample.RemoveDeadLetterPolicy),
			receiveSample("dead-letter-delivery-attempts", "receive and print delivery attempts", pssample.DeadLetterDeliveryAttempts),
			idPubSubSample("detach-subscription", "detach a subscription from its topic", "subscription", pssample.DetachSubscription),
			idPubSubSample("delete-subscription", "delete a subscription", "subscription", pssample.DeleteSubscription),
			receiveSample("pull-messages", "receive and acknowledge messages", pssample.PullMessages),
			receiveSample("subscribe-exactly-once", "receive with exactly-once acknowledgements", pssample.SubscribeExactlyOnce),
			receiveSample("subscribe-ordering", "receive ordered messages", pssample.SubscribeOrdering),

			// IAM.
			idPubSubSample("get-topic-policy", "print a topic's IAM policy", "topic", pssample.GetTopicPolicy),
			pubsubSample("set-topic-policy", "grant a member the publisher role on a topic", []string{"topic", "member"},
				func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
					return pssample.SetTopicPolicy(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			idPubSubSample("test-topic-permissions", "print the caller's permissions on a topic", "topic", pssample.TestTopicPermissions),
			idPubSubSample("get-subscription-policy", "print a subscription's IAM policy", "subscription", pssample.GetSubscriptionPolicy),
			pubsubSample("set-subscription-policy", "grant a member the subscriber role on a subscription", []string{"subscription", "member"},
				func(ctx context.Context, w io.Writer, c *ps.Client, cmd *cli.Command) error {
					return pssample.SetSubscriptionPolicy(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			idPubSubSample("test-subscription-permissions", "print the caller's permissions on a subscription", "subscription", pssample.TestSubscriptionPermissions),
		},
	}).Build()
}
