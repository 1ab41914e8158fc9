// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package storagetransfer holds the Storage Transfer Service samples: one-off
// and scheduled bucket to bucket jobs, POSIX agent jobs, manifest jobs, S3
// sources and the inspection of a job's latest operation.
package storagetransfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	st "cloud.google.com/go/storagetransfer/apiv1"
	"cloud.google.com/go/storagetransfer/apiv1/storagetransferpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// NewClient returns a Storage Transfer client. Its LROClient serves the
// transfer operations.
func NewClient(ctx context.Context, f *gcp.Factory) (*st.Client, error) {
	c, err := st.NewClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage transfer client: %w", err)
	}
	return c, nil
}

// JobRow is a row of list-transfer-jobs.
type JobRow struct {
	ID            string `jsonapi:"primary,transfer-jobs"`
	Description   string `jsonapi:"attr,description"`
	Status        string `jsonapi:"attr,status"`
	Source        string `jsonapi:"attr,source"`
	Sink          string `jsonapi:"attr,sink"`
	LastOperation string `jsonapi:"attr,last-operation"`
}

// ListTransferJobs returns the project's transfer jobs.
func ListTransferJobs(ctx context.Context, c *st.Client, project string) ([]*JobRow, error) {
	var rows []*JobRow
	it := c.ListTransferJobs(ctx, &storagetransferpb.ListTransferJobsRequest{
		Filter: fmt.Sprintf(`{"projectId":%q}`, project),
	})
	for {
		j, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list transfer jobs: %w", err)
		}
		rows = append(rows, &JobRow{
			ID:            j.GetName(),
			Description:   j.GetDescription(),
			Status:        j.GetStatus().String(),
			Source:        source(j.GetTransferSpec()),
			Sink:          sink(j.GetTransferSpec()),
			LastOperation: j.GetLatestOperationName(),
		})
	}
	return rows, nil
}

func source(s *storagetransferpb.TransferSpec) string {
	switch {
	case s.GetGcsDataSource() != nil:
		return "gs://" + s.GetGcsDataSource().GetBucketName()
	case s.GetAwsS3DataSource() != nil:
		return "s3://" + s.GetAwsS3DataSource().GetBucketName()
	case s.GetPosixDataSource() != nil:
		return s.GetPosixDataSource().GetRootDirectory()
	}
	return ""
}

func sink(s *storagetransferpb.TransferSpec) string {
	switch {
	case s.GetGcsDataSink() != nil:
		return "gs://" + s.GetGcsDataSink().GetBucketName()
	case s.GetPosixDataSink() != nil:
		return s.GetPosixDataSink().GetRootDirectory()
	}
	return ""
}

// createJob creates job and, when run is set, starts it right away without
// waiting for it to finish.
func createJob(ctx context.Context, c *st.Client, job *storagetransferpb.TransferJob, run bool) (*storagetransferpb.TransferJob, error) {
	created, err := c.CreateTransferJob(ctx, &storagetransferpb.CreateTransferJobRequest{TransferJob: job})
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer job: %w", err)
	}
	if !run {
		return created, nil
	}
	if _, err := c.RunTransferJob(ctx, &storagetransferpb.RunTransferJobRequest{
		JobName:   created.GetName(),
		ProjectId: job.GetProjectId(),
	}); err != nil {
		return nil, fmt.Errorf("failed to run transfer job %s: %w", created.GetName(), err)
	}
	return created, nil
}

// GetServiceAccount prints the service account the service uses for the
// project. It needs access to the source and sink buckets.
func GetServiceAccount(ctx context.Context, w io.Writer, c *st.Client, project string) error {
	sa, err := c.GetGoogleServiceAccount(ctx, &storagetransferpb.GetGoogleServiceAccountRequest{ProjectId: project})
	if err != nil {
		return fmt.Errorf("failed to get service account: %w", err)
	}
	fmt.Fprintf(w, "Service account: %s\n", sa.GetAccountEmail())
	fmt.Fprintf(w, "Subject ID: %s\n", sa.GetSubjectId())
	return nil
}
