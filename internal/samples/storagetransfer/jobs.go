// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storagetransfer

import (
	"context"
	"fmt"
	"io"
	"time"

	st "cloud.google.com/go/storagetransfer/apiv1"
	"cloud.google.com/go/storagetransfer/apiv1/storagetransferpb"
	"google.golang.org/genproto/googleapis/type/date"
	"google.golang.org/genproto/googleapis/type/timeofday"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/staranto/gcpctl/internal/aws"
)

// NearlineAge is how long an object must sit unmodified before the nearline
// jobs move it.
const NearlineAge = 30 * 24 * time.Hour

func gcsSource(bucket string) *storagetransferpb.TransferSpec_GcsDataSource {
	return &storagetransferpb.TransferSpec_GcsDataSource{
		GcsDataSource: &storagetransferpb.GcsData{BucketName: bucket},
	}
}

func gcsSink(bucket string) *storagetransferpb.TransferSpec_GcsDataSink {
	return &storagetransferpb.TransferSpec_GcsDataSink{
		GcsDataSink: &storagetransferpb.GcsData{BucketName: bucket},
	}
}

func posixSource(dir string) *storagetransferpb.TransferSpec_PosixDataSource {
	return &storagetransferpb.TransferSpec_PosixDataSource{
		PosixDataSource: &storagetransferpb.PosixFilesystem{RootDirectory: dir},
	}
}

// Quickstart copies sourceBucket into sinkBucket once.
func Quickstart(ctx context.Context, w io.Writer, c *st.Client, project, sourceBucket, sinkBucket string) error {
	job, err := createJob(ctx, c, &storagetransferpb.TransferJob{
		ProjectId: project,
		TransferSpec: &storagetransferpb.TransferSpec{
			DataSource: gcsSource(sourceBucket),
			DataSink:   gcsSink(sinkBucket),
		},
		Status: storagetransferpb.TransferJob_ENABLED,
	}, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created and ran transfer job from %s to %s with name %s\n", sourceBucket, sinkBucket, job.GetName())
	return nil
}

// Schedule turns start into a daily schedule beginning on its date at its
// time of day, in UTC.
func Schedule(start time.Time) *storagetransferpb.Schedule {
	start = start.UTC()
	return &storagetransferpb.Schedule{
		ScheduleStartDate: &date.Date{
			Year:  int32(start.Year()),
			Month: int32(start.Month()),
			Day:   int32(start.Day()),
		},
		StartTimeOfDay: &timeofday.TimeOfDay{
			Hours:   int32(start.Hour()),
			Minutes: int32(start.Minute()),
			Seconds: int32(start.Second()),
		},
	}
}

// nearlineJob moves objects older than NearlineAge from source to sink every
// day and deletes them from source.
func nearlineJob(project, description, sourceBucket, sinkBucket string, start time.Time) *storagetransferpb.TransferJob {
	return &storagetransferpb.TransferJob{
		ProjectId:   project,
		Description: description,
		Schedule:    Schedule(start),
		TransferSpec: &storagetransferpb.TransferSpec{
			DataSource: gcsSource(sourceBucket),
			DataSink:   gcsSink(sinkBucket),
			ObjectConditions: &storagetransferpb.ObjectConditions{
				MinTimeElapsedSinceLastModification: durationpb.New(NearlineAge),
			},
			TransferOptions: &storagetransferpb.TransferOptions{
				DeleteObjectsFromSourceAfterTransfer: true,
			},
		},
		Status: storagetransferpb.TransferJob_ENABLED,
	}
}

// NearlineRequest creates the daily nearline job and runs it once now.
func NearlineRequest(ctx context.Context, w io.Writer, c *st.Client, project, description, sourceBucket, sinkBucket string, start time.Time) error {
	job, err := createJob(ctx, c, nearlineJob(project, description, sourceBucket, sinkBucket, start), true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created and ran transfer job : %s\n", job.GetName())
	return nil
}

// TransferToNearline creates the daily nearline job and leaves the first run
// to the schedule.
func TransferToNearline(ctx context.Context, w io.Writer, c *st.Client, project, description, sourceBucket, sinkBucket string, start time.Time) error {
	job, err := createJob(ctx, c, nearlineJob(project, description, sourceBucket, sinkBucket, start), false)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created a transfer job from %s to %s with name %s\n", sourceBucket, sinkBucket, job.GetName())
	return nil
}

// ManifestRequest transfers the files listed in the manifest from an agent
// pool's root directory to sinkBucket.
func ManifestRequest(ctx context.Context, w io.Writer, c *st.Client, project, agentPool, rootDirectory, sinkBucket, manifest string) error {
	job, err := createJob(ctx, c, &storagetransferpb.TransferJob{
		ProjectId: project,
		TransferSpec: &storagetransferpb.TransferSpec{
			SourceAgentPoolName: agentPool,
			DataSource:          posixSource(rootDirectory),
			DataSink:            gcsSink(sinkBucket),
			TransferManifest:    &storagetransferpb.TransferManifest{Location: manifest},
		},
		Status: storagetransferpb.TransferJob_ENABLED,
	}, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created and ran transfer job from %s to %s using manifest %s with name %s\n",
		rootDirectory, sinkBucket, manifest, job.GetName())
	return nil
}

// PosixRequest uploads an agent pool's root directory to sinkBucket.
func PosixRequest(ctx context.Context, w io.Writer, c *st.Client, project, agentPool, rootDirectory, sinkBucket string) error {
	job, err := createJob(ctx, c, &storagetransferpb.TransferJob{
		ProjectId: project,
		TransferSpec: &storagetransferpb.TransferSpec{
			SourceAgentPoolName: agentPool,
			DataSource:          posixSource(rootDirectory),
			DataSink:            gcsSink(sinkBucket),
		},
		Status: storagetransferpb.TransferJob_ENABLED,
	}, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created and ran transfer job from %s to %s with name %s\n", rootDirectory, sinkBucket, job.GetName())
	return nil
}

// PosixToPosixRequest copies between two agent pools, staging through
// intermediateBucket.
func PosixToPosixRequest(ctx context.Context, w io.Writer, c *st.Client, project, sourcePool, sinkPool, rootDirectory, destinationDirectory, intermediateBucket string) error {
	job, err := createJob(ctx, c, &storagetransferpb.TransferJob{
		ProjectId: project,
		TransferSpec: &storagetransferpb.TransferSpec{
			SourceAgentPoolName: sourcePool,
			SinkAgentPoolName:   sinkPool,
			DataSource:          posixSource(rootDirectory),
			DataSink: &storagetransferpb.TransferSpec_PosixDataSink{
				PosixDataSink: &storagetransferpb.PosixFilesystem{RootDirectory: destinationDirectory},
			},
			IntermediateDataLocation: &storagetransferpb.TransferSpec_GcsIntermediateDataLocation{
				GcsIntermediateDataLocation: &storagetransferpb.GcsData{BucketName: intermediateBucket},
			},
		},
		Status: storagetransferpb.TransferJob_ENABLED,
	}, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created and ran transfer job from %s to %s with name %s\n", rootDirectory, destinationDirectory, job.GetName())
	return nil
}

// AWSRequest copies an S3 bucket into sinkBucket once. The S3 bucket is
// checked with the same credentials that are handed to the service.
func AWSRequest(ctx context.Context, w io.Writer, c *st.Client, s3 aws.HeadBucketAPI, creds aws.Credentials, project, s3Bucket, sinkBucket string) error {
	ok, err := aws.BucketExists(ctx, s3, s3Bucket)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(w, "S3 bucket %s not found.\n", s3Bucket)
		return nil
	}

	job, err := createJob(ctx, c, &storagetransferpb.TransferJob{
		ProjectId: project,
		TransferSpec: &storagetransferpb.TransferSpec{
			DataSource: &storagetransferpb.TransferSpec_AwsS3DataSource{
				AwsS3DataSource: &storagetransferpb.AwsS3Data{
					BucketName: s3Bucket,
					AwsAccessKey: &storagetransferpb.AwsAccessKey{
						AccessKeyId:     creds.AccessKeyID,
						SecretAccessKey: creds.SecretAccessKey,
					},
				},
			},
			DataSink: gcsSink(sinkBucket),
		},
		Status: storagetransferpb.TransferJob_ENABLED,
	}, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created and ran transfer job from s3://%s to %s with name %s\n", s3Bucket, sinkBucket, job.GetName())
	return nil
}
