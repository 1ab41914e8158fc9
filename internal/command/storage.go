// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	storagesample "github.com/staranto/gcpctl/internal/samples/storage"
)

var openStorage = FromFactory(storagesample.NewClient)

type storageFunc func(context.Context, io.Writer, *gcs.Client, *cli.Command) error

func storageRun(fn storageFunc) RunFunc {
	return With(openStorage, func(ctx context.Context, s *Session, cmd *cli.Command, c *gcs.Client) error {
		return fn(ctx, s.Out, c, cmd)
	})
}

// bucketSample builds a sample whose only argument is the bucket.
func bucketSample(name, usage string, fn func(context.Context, io.Writer, *gcs.Client, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"bucket"},
		Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
			return fn(ctx, w, c, arg(cmd, 0))
		}),
	}
}

// objectSample builds a sample whose arguments are the bucket and object.
func objectSample(name, usage string, fn func(context.Context, io.Writer, *gcs.Client, string, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"bucket", "object"},
		Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
			return fn(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
		}),
	}
}

func projectStorageRun(fn ProjectFunc[*gcs.Client]) RunFunc {
	return WithProject(openStorage, fn)
}

// parseMetadata turns key=value arguments into object metadata.
func parseMetadata(pairs []string) (map[string]string, error) {
	md := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("metadata %q is not key=value", p)
		}
		md[k] = v
	}
	return md, nil
}

func conditionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "condition title"},
		&cli.StringFlag{Name: "description", Usage: "condition description"},
		&cli.StringFlag{Name: "expression", Usage: "condition CEL expression"},
	}
}

func signerRun(fn func(io.Writer, *gcs.Client, *storagesample.Signer, string, string) error) RunFunc {
	return storageRun(func(_ context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
		var signer *storagesample.Signer
		if kf := cmd.String("key-file"); kf != "" {
			var err error
			if signer, err = storagesample.LoadSigner(kf); err != nil {
				return err
			}
		}
		return fn(w, c, signer, arg(cmd, 0), arg(cmd, 1))
	})
}

func signerSample(name, usage string, fn func(io.Writer, *gcs.Client, *storagesample.Signer, string, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"bucket", "object"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "key-file",
				Usage: "service account key to sign with. The client's credentials when unset",
			},
		},
		Run: signerRun(fn),
	}
}

// StorageCommandBuilder constructs the "storage" command group.
func StorageCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "storage",
		Usage: "Cloud Storage samples",
		Meta:  meta,
		Samples: []Sample{
			// Buckets.
			List("list-buckets", "list the project's buckets", nil, nil,
				ListWith(openStorage, func(ctx context.Context, s *Session, _ *cli.Command, c *gcs.Client) ([]*storagesample.BucketRow, error) {
					project, err := s.Project(ctx)
					if err != nil {
						return nil, err
					}
					return storagesample.ListBuckets(ctx, c, project)
				})),
			{
				Name:  "create-bucket",
				Usage: "create a bucket",
				Args:  []string{"bucket"},
				Run: projectStorageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, project string, cmd *cli.Command) error {
					return storagesample.CreateBucket(ctx, w, c, project, arg(cmd, 0))
				}),
			},
			{
				Name:  "create-bucket-class-location",
				Usage: "create a bucket with a storage class and location",
				Args:  []string{"bucket"},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "class", Usage: "storage class", Value: "COLDLINE"},
					&cli.StringFlag{Name: "location", Usage: "bucket location", Value: "ASIA"},
				},
				Run: projectStorageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, project string, cmd *cli.Command) error {
					return storagesample.CreateBucketClassLocation(ctx, w, c, project, arg(cmd, 0), cmd.String("class"), cmd.String("location"))
				}),
			},
			{
				Name:  "create-bucket-turbo-replication",
				Usage: "create a dual-region bucket with turbo replication",
				Args:  []string{"bucket"},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Usage: "dual-region location", Value: "NAM4"},
				},
				Run: projectStorageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, project string, cmd *cli.Command) error {
					return storagesample.CreateBucketTurboReplication(ctx, w, c, project, arg(cmd, 0), cmd.String("location"))
				}),
			},
			bucketSample("get-bucket-metadata", "print a bucket's metadata", storagesample.GetBucketMetadata),
			bucketSample("delete-bucket", "delete an empty bucket", storagesample.DeleteBucket),
			bucketSample("get-bucket-labels", "print a bucket's labels", storagesample.GetBucketLabels),
			{
				Name:  "add-bucket-label",
				Usage: "add a label to a bucket",
				Args:  []string{"bucket", "label", "value"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.AddBucketLabel(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "remove-bucket-label",
				Usage: "remove a label from a bucket",
				Args:  []string{"bucket", "label"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.RemoveBucketLabel(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			bucketSample("enable-requester-pays", "make requesters pay for access", storagesample.EnableRequesterPays),
			bucketSample("disable-requester-pays", "stop requesters paying for access", storagesample.DisableRequesterPays),
			bucketSample("get-requester-pays-status", "print whether requester pays is on", storagesample.GetRequesterPaysStatus),
			bucketSample("enable-uniform-bucket-level-access", "turn on uniform bucket-level access", storagesample.EnableUniformBucketLevelAccess),
			bucketSample("disable-uniform-bucket-level-access", "turn off uniform bucket-level access", storagesample.DisableUniformBucketLevelAccess),
			bucketSample("get-uniform-bucket-level-access", "print the uniform bucket-level access setting", storagesample.GetUniformBucketLevelAccess),
			bucketSample("set-rpo-async-turbo", "turn on turbo replication", storagesample.SetRPOAsyncTurbo),
			bucketSample("set-rpo-default", "turn off turbo replication", storagesample.SetRPODefault),
			bucketSample("get-rpo", "print the recovery point objective", storagesample.GetRPO),

			// Objects.
			List("list-objects", "list the objects in a bucket", []string{"bucket"},
				[]cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "only objects whose names start with this"},
					&cli.StringFlag{Name: "delimiter", Usage: "group names on this, e.g. /"},
				},
				ListWith(openStorage, func(ctx context.Context, _ *Session, cmd *cli.Command, c *gcs.Client) ([]*storagesample.ObjectRow, error) {
					return storagesample.ListObjects(ctx, c, arg(cmd, 0), cmd.String("prefix"), cmd.String("delimiter"))
				})),
			{
				Name:  "upload-object",
				Usage: "upload a file",
				Args:  []string{"bucket", "object", "file"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.UploadObject(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "upload-object-from-memory",
				Usage: "upload a string",
				Args:  []string{"bucket", "object", "contents"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.UploadObjectFromMemory(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "download-object",
				Usage: "download an object to a file",
				Args:  []string{"bucket", "object", "file"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.DownloadObject(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			objectSample("download-object-into-memory", "download an object and print it", storagesample.DownloadObjectIntoMemory),
			objectSample("delete-object", "delete an object", storagesample.DeleteObject),
			{
				Name:  "copy-object",
				Usage: "copy an object",
				Args:  []string{"bucket", "object", "dst-bucket", "dst-object"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.CopyObject(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			{
				Name:  "move-object",
				Usage: "move an object",
				Args:  []string{"bucket", "object", "dst-bucket", "dst-object"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.MoveObject(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			objectSample("object-metadata", "print an object's metadata", storagesample.ObjectMetadata),
			{
				Name:  "set-object-metadata",
				Usage: "set custom metadata on an object",
				Args:  []string{"bucket", "object", "key=value..."},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					md, err := parseMetadata(rest(cmd, 2))
					if err != nil {
						return err
					}
					return storagesample.SetObjectMetadata(ctx, w, c, arg(cmd, 0), arg(cmd, 1), md)
				}),
			},
			objectSample("make-public", "make an object publicly readable", storagesample.MakePublic),

			// ACLs.
			{
				Name:  "print-bucket-acl",
				Usage: "print a bucket's ACL, or one entity's role",
				Args:  []string{"bucket", "[entity]"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.PrintBucketACL(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			{
				Name:  "add-bucket-owner",
				Usage: "make an entity a bucket owner",
				Args:  []string{"bucket", "entity"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.AddBucketOwner(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			{
				Name:  "remove-bucket-owner",
				Usage: "remove an entity from a bucket's ACL",
				Args:  []string{"bucket", "entity"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.RemoveBucketOwner(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			{
				Name:  "print-object-acl",
				Usage: "print an object's ACL, or one entity's role",
				Args:  []string{"bucket", "object", "[entity]"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.PrintObjectACL(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "add-object-owner",
				Usage: "make an entity an object owner",
				Args:  []string{"bucket", "object", "entity"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.AddObjectOwner(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "remove-object-owner",
				Usage: "remove an entity from an object's ACL",
				Args:  []string{"bucket", "object", "entity"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.RemoveObjectOwner(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "add-bucket-default-owner",
				Usage: "make an entity the owner of new objects",
				Args:  []string{"bucket", "entity"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.AddBucketDefaultOwner(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			{
				Name:  "remove-bucket-default-owner",
				Usage: "remove an entity from the default object ACL",
				Args:  []string{"bucket", "entity"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.RemoveBucketDefaultOwner(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},

			// IAM.
			bucketSample("view-bucket-iam-members", "print a bucket's IAM bindings", storagesample.ViewBucketIAMMembers),
			{
				Name:  "add-bucket-iam-member",
				Usage: "grant a role on a bucket",
				Args:  []string{"bucket", "role", "member..."},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.AddBucketIAMMember(ctx, w, c, arg(cmd, 0), arg(cmd, 1), rest(cmd, 2)...)
				}),
			},
			{
				Name:  "add-bucket-conditional-iam-binding",
				Usage: "grant a role on a bucket under a condition",
				Args:  []string{"bucket", "role", "member..."},
				Flags: conditionFlags(),
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					cond := storagesample.Condition{
						Title:       cmd.String("title"),
						Description: cmd.String("description"),
						Expression:  cmd.String("expression"),
					}
					if cond.Title == "" || cond.Expression == "" {
						return fmt.Errorf("%s: --title and --expression are required", cmd.Name)
					}
					return storagesample.AddBucketConditionalIAMBinding(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cond, rest(cmd, 2)...)
				}),
			},
			{
				Name:  "remove-bucket-iam-member",
				Usage: "revoke a role on a bucket, optionally only a conditional binding",
				Args:  []string{"bucket", "role", "member"},
				Flags: conditionFlags(),
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					var cond *storagesample.Condition
					if cmd.String("title") != "" || cmd.String("expression") != "" {
						cond = &storagesample.Condition{
							Title:       cmd.String("title"),
							Description: cmd.String("description"),
							Expression:  cmd.String("expression"),
						}
					}
					return storagesample.RemoveBucketIAMMember(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), cond)
				}),
			},

			// Bucket lock.
			{
				Name:  "set-retention-policy",
				Usage: "set a bucket's retention period",
				Args:  []string{"bucket", "seconds"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					secs, err := argInt64(cmd, 1)
					if err != nil {
						return err
					}
					return storagesample.SetRetentionPolicy(ctx, w, c, arg(cmd, 0), time.Duration(secs)*time.Second)
				}),
			},
			bucketSample("remove-retention-policy", "remove an unlocked retention policy", storagesample.RemoveRetentionPolicy),
			bucketSample("lock-retention-policy", "lock the retention policy permanently", storagesample.LockRetentionPolicy),
			bucketSample("get-retention-policy", "print the retention policy", storagesample.GetRetentionPolicy),
			objectSample("set-temporary-hold", "put a temporary hold on an object", storagesample.SetTemporaryHold),
			objectSample("release-temporary-hold", "release an object's temporary hold", storagesample.ReleaseTemporaryHold),
			objectSample("set-event-based-hold", "put an event-based hold on an object", storagesample.SetEventBasedHold),
			objectSample("release-event-based-hold", "release an object's event-based hold", storagesample.ReleaseEventBasedHold),
			bucketSample("enable-default-event-based-hold", "hold new objects by default", storagesample.EnableDefaultEventBasedHold),
			bucketSample("disable-default-event-based-hold", "stop holding new objects by default", storagesample.DisableDefaultEventBasedHold),
			bucketSample("get-default-event-based-hold", "print the default event-based hold setting", storagesample.GetDefaultEventBasedHold),

			// Encryption.
			{
				Name:  "generate-encryption-key",
				Usage: "print a customer-supplied encryption key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "passphrase",
						Usage:   "derive the key from this passphrase",
						Sources: cli.NewValueSourceChain(cli.EnvVar("GCPCTL_PASSPHRASE")),
					},
					&cli.BoolFlag{Name: "prompt", Usage: "read the passphrase from the terminal"},
					&cli.StringFlag{Name: "salt", Usage: "salt for the key derivation", Value: storagesample.DefaultKeySalt},
				},
				Run: func(_ context.Context, s *Session, cmd *cli.Command) error {
					passphrase := cmd.String("passphrase")
					if passphrase == "" && cmd.Bool("prompt") {
						var err error
						if passphrase, err = storagesample.PromptPassphrase(os.Stderr, int(os.Stdin.Fd())); err != nil {
							return err
						}
					}
					return storagesample.GenerateEncryptionKey(s.Out, passphrase, cmd.String("salt"))
				},
			},
			{
				Name:  "upload-encrypted-object",
				Usage: "upload a file encrypted with a customer-supplied key",
				Args:  []string{"bucket", "object", "file", "key"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.UploadEncryptedObject(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			{
				Name:  "download-encrypted-object",
				Usage: "download an object encrypted with a customer-supplied key",
				Args:  []string{"bucket", "object", "file", "key"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.DownloadEncryptedObject(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			{
				Name:  "rotate-encryption-key",
				Usage: "re-encrypt an object with a new customer-supplied key",
				Args:  []string{"bucket", "object", "old-key", "new-key"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.RotateEncryptionKey(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			{
				Name:  "enable-default-kms-key",
				Usage: "encrypt new objects with a Cloud KMS key",
				Args:  []string{"bucket", "kms-key"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.EnableDefaultKMSKey(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			{
				Name:  "upload-with-kms-key",
				Usage: "upload a file encrypted with a Cloud KMS key",
				Args:  []string{"bucket", "object", "file", "kms-key"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.UploadWithKMSKey(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			{
				Name:  "object-csek-to-cmek",
				Usage: "move an object from a customer-supplied key to a Cloud KMS key",
				Args:  []string{"bucket", "object", "key", "kms-key"},
				Run: storageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, cmd *cli.Command) error {
					return storagesample.ObjectCSEKToCMEK(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},

			// HMAC keys.
			List("list-hmac-keys", "list the project's HMAC keys", nil, nil,
				ListWith(openStorage, func(ctx context.Context, s *Session, _ *cli.Command, c *gcs.Client) ([]*storagesample.HMACKeyRow, error) {
					project, err := s.Project(ctx)
					if err != nil {
						return nil, err
					}
					return storagesample.ListHMACKeys(ctx, c, project)
				})),
			{
				Name:  "create-hmac-key",
				Usage: "create an HMAC key for a service account",
				Args:  []string{"service-account"},
				Run: projectStorageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, project string, cmd *cli.Command) error {
					return storagesample.CreateHMACKey(ctx, w, c, project, arg(cmd, 0))
				}),
			},
			hmacSample("get-hmac-key", "print an HMAC key", storagesample.GetHMACKey),
			hmacSample("activate-hmac-key", "activate an HMAC key", storagesample.ActivateHMACKey),
			hmacSample("deactivate-hmac-key", "deactivate an HMAC key", storagesample.DeactivateHMACKey),
			hmacSample("delete-hmac-key", "delete an inactive HMAC key", storagesample.DeleteHMACKey),

			// Signing.
			signerSample("generate-v4-signed-url", "print a signed URL that downloads an object", storagesample.GenerateV4SignedURL),
			signerSample("generate-v4-put-signed-url", "print a signed URL that uploads an object", storagesample.GenerateV4PutSignedURL),
			signerSample("generate-signed-post-policy-v4", "print an HTML form that uploads an object", storagesample.GenerateSignedPostPolicyV4),

			bucketSample("configure-retries", "list a bucket with a customised retry policy", storagesample.ConfigureRetries),
		},
	}).Build()
}

func hmacSample(name, usage string, fn func(context.Context, io.Writer, *gcs.Client, string, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"access-id"},
		Run: projectStorageRun(func(ctx context.Context, w io.Writer, c *gcs.Client, project string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, arg(cmd, 0))
		}),
	}
}
