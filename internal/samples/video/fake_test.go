// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package video

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	vi "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

// fakeVideo finishes every annotation immediately with results.
type fakeVideo struct {
	videointelligencepb.UnimplementedVideoIntelligenceServiceServer

	mu      sync.Mutex
	last    *videointelligencepb.AnnotateVideoRequest
	results *videointelligencepb.VideoAnnotationResults
}

func (f *fakeVideo) AnnotateVideo(_ context.Context, req *videointelligencepb.AnnotateVideoRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req

	res := f.results
	if res == nil {
		res = &videointelligencepb.VideoAnnotationResults{}
	}
	packed, err := anypb.New(&videointelligencepb.AnnotateVideoResponse{
		AnnotationResults: []*videointelligencepb.VideoAnnotationResults{res},
	})
	if err != nil {
		return nil, err
	}
	return &longrunningpb.Operation{
		Name:   "operations/fake",
		Done:   true,
		Result: &longrunningpb.Operation_Response{Response: packed},
	}, nil
}

func (f *fakeVideo) request() *videointelligencepb.AnnotateVideoRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func newClient(t *testing.T, results *videointelligencepb.VideoAnnotationResults) (*vi.Client, *fakeVideo) {
	t.Helper()

	fake := &fakeVideo{results: results}
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		videointelligencepb.RegisterVideoIntelligenceServiceServer(s, fake)
	})
	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

func offset(d time.Duration) *durationpb.Duration {
	return durationpb.New(d)
}

func segment(start, end time.Duration) *videointelligencepb.VideoSegment {
	return &videointelligencepb.VideoSegment{StartTimeOffset: offset(start), EndTimeOffset: offset(end)}
}
