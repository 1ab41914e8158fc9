// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package storagetransfer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"cloud.google.com/go/storagetransfer/apiv1/storagetransferpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/gcpctl/internal/aws"
	"github.com/staranto/gcpctl/internal/gcptest"
)

func TestQuickstartAndLatestOperation(t *testing.T) {
	ctx := context.Background()
	c, fake := newClient(t)

	var buf bytes.Buffer
	require.NoError(t, Quickstart(ctx, &buf, c, gcptest.Project, "src-bucket", "sink-bucket"))
	assert.Equal(t, "Created and ran transfer job from src-bucket to sink-bucket with name transferJobs/1\n", buf.String())
	assert.Equal(t, []string{"transferJobs/1"}, fake.runs)

	spec := fake.job("transferJobs/1").GetTransferSpec()
	assert.Equal(t, "src-bucket", spec.GetGcsDataSource().GetBucketName())
	assert.Equal(t, "sink-bucket", spec.GetGcsDataSink().GetBucketName())

	buf.Reset()
	require.NoError(t, CheckLatestTransferOperation(ctx, &buf, c, gcptest.Project, "transferJobs/1"))
	out := buf.String()
	assert.Contains(t, out, "Latest transfer operation for transferJobs/1 is transferOperations/op-1\n")
	assert.Contains(t, out, "Status: SUCCESS\n")
	assert.Contains(t, out, "Objects copied: 3 of 3\n")
	assert.Contains(t, out, "Bytes copied: 3.0 kB of 3.0 kB\n")

	buf.Reset()
	require.NoError(t, CheckLatestTransferOperation(ctx, &buf, c, gcptest.Project, "transferJobs/99"))
	assert.Equal(t, "Transfer job transferJobs/99 not found.\n", buf.String())
}

func TestNearline(t *testing.T) {
	ctx := context.Background()
	c, fake := newClient(t)
	start := time.Date(2025, 7, 4, 13, 30, 15, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, TransferToNearline(ctx, &buf, c, gcptest.Project, "nightly", "hot", "cold", start))
	assert.Equal(t, "Created a transfer job from hot to cold with name transferJobs/1\n", buf.String())
	assert.Empty(t, fake.runs)

	buf.Reset()
	require.NoError(t, CheckLatestTransferOperation(ctx, &buf, c, gcptest.Project, "transferJobs/1"))
	assert.Equal(t, "Transfer job transferJobs/1 has not ran yet.\n", buf.String())

	buf.Reset()
	require.NoError(t, NearlineRequest(ctx, &buf, c, gcptest.Project, "nightly", "hot", "cold", start))
	assert.Equal(t, "Created and ran transfer job : transferJobs/2\n", buf.String())

	job := fake.job("transferJobs/2")
	assert.Equal(t, "nightly", job.GetDescription())
	assert.Equal(t, storagetransferpb.TransferJob_ENABLED, job.GetStatus())
	assert.Equal(t, int32(2025), job.GetSchedule().GetScheduleStartDate().GetYear())
	assert.Equal(t, int32(7), job.GetSchedule().GetScheduleStartDate().GetMonth())
	assert.Equal(t, int32(4), job.GetSchedule().GetScheduleStartDate().GetDay())
	assert.Equal(t, int32(13), job.GetSchedule().GetStartTimeOfDay().GetHours())
	assert.Equal(t, int32(30), job.GetSchedule().GetStartTimeOfDay().GetMinutes())
	assert.Nil(t, job.GetSchedule().GetScheduleEndDate())
	assert.Equal(t, int64(2592000), job.GetTransferSpec().GetObjectConditions().GetMinTimeElapsedSinceLastModification().GetSeconds())
	assert.True(t, job.GetTransferSpec().GetTransferOptions().GetDeleteObjectsFromSourceAfterTransfer())
}

func TestPosixJobs(t *testing.T) {
	ctx := context.Background()
	c, fake := newClient(t)
	pool := "projects/test-project/agentPools/transfer_service_default"

	var buf bytes.Buffer
	require.NoError(t, PosixRequest(ctx, &buf, c, gcptest.Project, pool, "/data", "sink"))
	require.NoError(t, ManifestRequest(ctx, &buf, c, gcptest.Project, pool, "/data", "sink", "gs://m/manifest.csv"))
	require.NoError(t, PosixToPosixRequest(ctx, &buf, c, gcptest.Project, pool, pool, "/data", "/backup", "staging"))

	want := "Created and ran transfer job from /data to sink with name transferJobs/1\n" +
		"Created and ran transfer job from /data to sink using manifest gs://m/manifest.csv with name transferJobs/2\n" +
		"Created and ran transfer job from /data to /backup with name transferJobs/3\n"
	assert.Equal(t, want, buf.String())

	assert.Equal(t, "gs://m/manifest.csv", fake.job("transferJobs/2").GetTransferSpec().GetTransferManifest().GetLocation())
	spec := fake.job("transferJobs/3").GetTransferSpec()
	assert.Equal(t, "/backup", spec.GetPosixDataSink().GetRootDirectory())
	assert.Equal(t, "staging", spec.GetGcsIntermediateDataLocation().GetBucketName())
	assert.Equal(t, pool, spec.GetSinkAgentPoolName())

	rows, err := ListTransferJobs(ctx, c, gcptest.Project)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "/data", rows[0].Source)
	assert.Equal(t, "gs://sink", rows[0].Sink)
	assert.Equal(t, "transferOperations/op-1", rows[0].LastOperation)
	assert.Equal(t, "/backup", rows[2].Sink)
}

func TestAWSRequest(t *testing.T) {
	ctx := context.Background()
	c, fake := newClient(t)
	s3 := s3Stub{buckets: map[string]bool{"aws-source": true}}
	creds := aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}

	var buf bytes.Buffer
	require.NoError(t, AWSRequest(ctx, &buf, c, s3, creds, gcptest.Project, "missing", "sink"))
	assert.Equal(t, "S3 bucket missing not found.\n", buf.String())
	assert.Empty(t, fake.runs)

	buf.Reset()
	require.NoError(t, AWSRequest(ctx, &buf, c, s3, creds, gcptest.Project, "aws-source", "sink"))
	assert.Equal(t, "Created and ran transfer job from s3://aws-source to sink with name transferJobs/1\n", buf.String())

	src := fake.job("transferJobs/1").GetTransferSpec().GetAwsS3DataSource()
	assert.Equal(t, "aws-source", src.GetBucketName())
	assert.Equal(t, "AKID", src.GetAwsAccessKey().GetAccessKeyId())
	assert.Equal(t, "SECRET", src.GetAwsAccessKey().GetSecretAccessKey())
}

func TestGetServiceAccount(t *testing.T) {
	c, _ := newClient(t)

	var buf bytes.Buffer
	require.NoError(t, GetServiceAccount(context.Background(), &buf, c, gcptest.Project))
	assert.Equal(t, "Service account: project-test-project@storage-transfer-service.iam.gserviceaccount.com\nSubject ID: 1234567890\n", buf.String())
}
