// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package transcoder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	transcoder "cloud.google.com/go/video/transcoder/apiv1"
	"cloud.google.com/go/video/transcoder/apiv1/transcoderpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

type fakeTranscoder struct {
	transcoderpb.UnimplementedTranscoderServiceServer

	mu        sync.Mutex
	seq       int
	jobs      map[string]*transcoderpb.Job
	templates map[string]*transcoderpb.JobTemplate
	lastJob   *transcoderpb.Job
}

func newFakeTranscoder() *fakeTranscoder {
	return &fakeTranscoder{
		jobs:      map[string]*transcoderpb.Job{},
		templates: map[string]*transcoderpb.JobTemplate{},
	}
}

func children[V any](m map[string]V, prefix string) []V {
	var names []string
	for name := range m {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]V, 0, len(names))
	for _, n := range names {
		out = append(out, m[n])
	}
	return out
}

func (f *fakeTranscoder) CreateJob(_ context.Context, req *transcoderpb.CreateJobRequest) (*transcoderpb.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id := req.GetJob().GetTemplateId(); id != "" && !strings.HasPrefix(id, "preset/") {
		if _, ok := f.templates[req.GetParent()+"/jobTemplates/"+id]; !ok {
			return nil, status.Errorf(codes.NotFound, "template %s not found", id)
		}
	}

	f.seq++
	job := proto.Clone(req.GetJob()).(*transcoderpb.Job)
	job.Name = fmt.Sprintf("%s/jobs/job-%d", req.GetParent(), f.seq)
	job.State = transcoderpb.Job_PENDING
	job.CreateTime = timestamppb.Now()
	f.jobs[job.Name] = job
	f.lastJob = job
	return job, nil
}

func (f *fakeTranscoder) GetJob(_ context.Context, req *transcoderpb.GetJobRequest) (*transcoderpb.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	j, ok := f.jobs[req.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetName())
	}
	return j, nil
}

func (f *fakeTranscoder) ListJobs(_ context.Context, req *transcoderpb.ListJobsRequest) (*transcoderpb.ListJobsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &transcoderpb.ListJobsResponse{Jobs: children(f.jobs, req.GetParent()+"/jobs/")}, nil
}

func (f *fakeTranscoder) DeleteJob(_ context.Context, req *transcoderpb.DeleteJobRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.jobs[req.GetName()]; !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetName())
	}
	delete(f.jobs, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeTranscoder) CreateJobTemplate(_ context.Context, req *transcoderpb.CreateJobTemplateRequest) (*transcoderpb.JobTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetParent() + "/jobTemplates/" + req.GetJobTemplateId()
	if _, ok := f.templates[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s exists", name)
	}
	t := proto.Clone(req.GetJobTemplate()).(*transcoderpb.JobTemplate)
	t.Name = name
	f.templates[name] = t
	return t, nil
}

func (f *fakeTranscoder) GetJobTemplate(_ context.Context, req *transcoderpb.GetJobTemplateRequest) (*transcoderpb.JobTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.templates[req.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetName())
	}
	return t, nil
}

func (f *fakeTranscoder) ListJobTemplates(_ context.Context, req *transcoderpb.ListJobTemplatesRequest) (*transcoderpb.ListJobTemplatesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &transcoderpb.ListJobTemplatesResponse{JobTemplates: children(f.templates, req.GetParent()+"/jobTemplates/")}, nil
}

func (f *fakeTranscoder) DeleteJobTemplate(_ context.Context, req *transcoderpb.DeleteJobTemplateRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.templates[req.GetName()]; !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetName())
	}
	delete(f.templates, req.GetName())
	return &emptypb.Empty{}, nil
}

func newClient(t *testing.T) (*transcoder.Client, *fakeTranscoder) {
	t.Helper()

	fake := newFakeTranscoder()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		transcoderpb.RegisterTranscoderServiceServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
