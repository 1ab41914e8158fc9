// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	st "cloud.google.com/go/storagetransfer/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/aws"
	"github.com/staranto/gcpctl/internal/meta"
	transfersample "github.com/staranto/gcpctl/internal/samples/storagetransfer"
)

var openTransfer = FromFactory(transfersample.NewClient)

// transferRun passes the resolved project along with the client.
func transferRun(fn func(context.Context, *Session, *cli.Command, *st.Client, string) error) RunFunc {
	return With(openTransfer, func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client) error {
		project, err := s.Project(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, s, cmd, c, project)
	})
}

func startFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "start",
		Usage: "first run as RFC 3339, e.g. 2025-07-04T13:30:00Z. Now when unset",
	}
}

func startTime(cmd *cli.Command) (time.Time, error) {
	v := cmd.String("start")
	if v == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--start must be RFC 3339: %w", err)
	}
	return t, nil
}

// StorageTransferCommandBuilder constructs the "storagetransfer" command group.
func StorageTransferCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "storagetransfer",
		Usage: "Storage Transfer Service samples",
		Meta:  meta,
		Samples: []Sample{
			{
				Name:  "quickstart",
				Usage: "copy one bucket into another once",
				Args:  []string{"source-bucket", "sink-bucket"},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					return transfersample.Quickstart(ctx, s.Out, c, project, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			{
				Name:  "transfer-to-nearline",
				Usage: "create a daily job that moves old objects into a Nearline bucket",
				Args:  []string{"description", "source-bucket", "sink-bucket"},
				Flags: []cli.Flag{startFlag()},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					start, err := startTime(cmd)
					if err != nil {
						return err
					}
					return transfersample.TransferToNearline(ctx, s.Out, c, project, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), start)
				}),
			},
			{
				Name:  "nearline-request",
				Usage: "create and run a job that moves old objects into a Nearline bucket",
				Args:  []string{"description", "source-bucket", "sink-bucket"},
				Flags: []cli.Flag{startFlag()},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					start, err := startTime(cmd)
					if err != nil {
						return err
					}
					return transfersample.NearlineRequest(ctx, s.Out, c, project, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), start)
				}),
			},
			{
				Name:  "check-latest-transfer-operation",
				Usage: "print the status of a job's latest operation",
				Args:  []string{"job"},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					return transfersample.CheckLatestTransferOperation(ctx, s.Out, c, project, arg(cmd, 0))
				}),
			},
			{
				Name:  "transfer-using-manifest",
				Usage: "copy the files listed in a manifest from a POSIX file system",
				Args:  []string{"agent-pool", "root-directory", "sink-bucket", "manifest"},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					return transfersample.ManifestRequest(ctx, s.Out, c, project, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			},
			{
				Name:  "transfer-from-posix",
				Usage: "copy a POSIX directory into a bucket",
				Args:  []string{"agent-pool", "root-directory", "sink-bucket"},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					return transfersample.PosixRequest(ctx, s.Out, c, project, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "transfer-between-posix",
				Usage: "copy one POSIX directory into another through a bucket",
				Args:  []string{"source-pool", "sink-pool", "root-directory", "destination-directory", "intermediate-bucket"},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					return transfersample.PosixToPosixRequest(ctx, s.Out, c, project, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2), arg(cmd, 3), arg(cmd, 4))
				}),
			},
			{
				Name:  "aws-request",
				Usage: "copy an S3 bucket into a bucket once",
				Args:  []string{"s3-bucket", "sink-bucket"},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "aws-profile",
						Usage:   "AWS shared config profile",
						Sources: cli.EnvVars("AWS_PROFILE"),
					},
					&cli.StringFlag{
						Name:    "aws-region",
						Usage:   "AWS region",
						Sources: cli.EnvVars("AWS_REGION"),
					},
				},
				Run: transferRun(func(ctx context.Context, s *Session, cmd *cli.Command, c *st.Client, project string) error {
					var opts []aws.Option
					if p := cmd.String("aws-profile"); p != "" {
						opts = append(opts, aws.WithProfile(p))
					}
					if r := cmd.String("aws-region"); r != "" {
						opts = append(opts, aws.WithRegion(r))
					}
					cfg, err := aws.LoadAWSConfig(ctx, opts...)
					if err != nil {
						return err
					}
					creds, err := aws.RetrieveCredentials(ctx, cfg)
					if err != nil {
						return err
					}
					return transfersample.AWSRequest(ctx, s.Out, c, aws.NewS3(cfg), creds, project, arg(cmd, 0), arg(cmd, 1))
				}),
			},
			List("list-transfer-jobs", "list the project's transfer jobs", nil, nil,
				ListWith(openTransfer, func(ctx context.Context, s *Session, _ *cli.Command, c *st.Client) ([]*transfersample.JobRow, error) {
					project, err := s.Project(ctx)
					if err != nil {
						return nil, err
					}
					return transfersample.ListTransferJobs(ctx, c, project)
				})),
			{
				Name:  "get-service-account",
				Usage: "print the service account the transfer service uses",
				Run: transferRun(func(ctx context.Context, s *Session, _ *cli.Command, c *st.Client, project string) error {
					return transfersample.GetServiceAccount(ctx, s.Out, c, project)
				}),
			},
		},
	}).Build()
}
