// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package storagetransfer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	st "cloud.google.com/go/storagetransfer/apiv1"
	"cloud.google.com/go/storagetransfer/apiv1/storagetransferpb"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

// fakeTransfer keeps jobs by name. Running a job records a finished
// operation that the operations service hands back.
type fakeTransfer struct {
	storagetransferpb.UnimplementedStorageTransferServiceServer
	longrunningpb.UnimplementedOperationsServer

	mu   sync.Mutex
	jobs map[string]*storagetransferpb.TransferJob
	ops  map[string]*longrunningpb.Operation
	runs []string
	next int
}

func newFakeTransfer() *fakeTransfer {
	return &fakeTransfer{
		jobs: map[string]*storagetransferpb.TransferJob{},
		ops:  map[string]*longrunningpb.Operation{},
	}
}

func (f *fakeTransfer) CreateTransferJob(_ context.Context, req *storagetransferpb.CreateTransferJobRequest) (*storagetransferpb.TransferJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	job := proto.Clone(req.GetTransferJob()).(*storagetransferpb.TransferJob)
	job.Name = fmt.Sprintf("transferJobs/%d", f.next)
	f.jobs[job.Name] = job
	return job, nil
}

func (f *fakeTransfer) RunTransferJob(_ context.Context, req *storagetransferpb.RunTransferJobRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[req.GetJobName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "job %s not found", req.GetJobName())
	}
	f.runs = append(f.runs, req.GetJobName())

	meta, err := anypb.New(&storagetransferpb.TransferOperation{
		Name:            "transferOperations/op-" + job.Name[len("transferJobs/"):],
		ProjectId:       req.GetProjectId(),
		TransferJobName: job.Name,
		Status:          storagetransferpb.TransferOperation_SUCCESS,
		Counters: &storagetransferpb.TransferCounters{
			ObjectsFoundFromSource: 3,
			BytesFoundFromSource:   3000,
			ObjectsCopiedToSink:    3,
			BytesCopiedToSink:      3000,
		},
	})
	if err != nil {
		return nil, err
	}
	op := &longrunningpb.Operation{
		Name:     "transferOperations/op-" + job.Name[len("transferJobs/"):],
		Metadata: meta,
		Done:     true,
	}
	f.ops[op.Name] = op
	job.LatestOperationName = op.Name
	return op, nil
}

func (f *fakeTransfer) GetTransferJob(_ context.Context, req *storagetransferpb.GetTransferJobRequest) (*storagetransferpb.TransferJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[req.GetJobName()]; ok {
		return job, nil
	}
	return nil, status.Errorf(codes.NotFound, "job %s not found", req.GetJobName())
}

func (f *fakeTransfer) ListTransferJobs(_ context.Context, _ *storagetransferpb.ListTransferJobsRequest) (*storagetransferpb.ListTransferJobsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &storagetransferpb.ListTransferJobsResponse{}
	for i := 1; i <= f.next; i++ {
		if job, ok := f.jobs[fmt.Sprintf("transferJobs/%d", i)]; ok {
			resp.TransferJobs = append(resp.TransferJobs, job)
		}
	}
	return resp, nil
}

func (f *fakeTransfer) GetGoogleServiceAccount(_ context.Context, req *storagetransferpb.GetGoogleServiceAccountRequest) (*storagetransferpb.GoogleServiceAccount, error) {
	return &storagetransferpb.GoogleServiceAccount{
		AccountEmail: fmt.Sprintf("project-%s@storage-transfer-service.iam.gserviceaccount.com", req.GetProjectId()),
		SubjectId:    "1234567890",
	}, nil
}

func (f *fakeTransfer) GetOperation(_ context.Context, req *longrunningpb.GetOperationRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op, ok := f.ops[req.GetName()]; ok {
		return op, nil
	}
	return nil, status.Errorf(codes.NotFound, "operation %s not found", req.GetName())
}

func (f *fakeTransfer) job(name string) *storagetransferpb.TransferJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[name]
}

func newClient(t *testing.T) (*st.Client, *fakeTransfer) {
	t.Helper()

	fake := newFakeTransfer()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		storagetransferpb.RegisterStorageTransferServiceServer(s, fake)
		longrunningpb.RegisterOperationsServer(s, fake)
	})
	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

// s3Stub answers HeadBucket for the buckets it knows.
type s3Stub struct {
	buckets map[string]bool
}

func (s s3Stub) HeadBucket(_ context.Context, in *s3v2.HeadBucketInput, _ ...func(*s3v2.Options)) (*s3v2.HeadBucketOutput, error) {
	if s.buckets[awsv2.ToString(in.Bucket)] {
		return &s3v2.HeadBucketOutput{}, nil
	}
	return nil, &types.NotFound{}
}
