// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package video holds the Video Intelligence samples. Each analysis takes a
// local file or a gs:// URI and waits for the annotation to finish.
package video

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	vi "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/progress"
)

// DefaultTimeout bounds how long an analysis is waited on.
const DefaultTimeout = 180 * time.Second

// NewClient returns a Video Intelligence client.
func NewClient(ctx context.Context, f *gcp.Factory) (*vi.Client, error) {
	c, err := vi.NewClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create video intelligence client: %w", err)
	}
	return c, nil
}

// request builds an annotation request for a gs:// URI or the contents of a
// local file.
func request(input string, feature videointelligencepb.Feature) (*videointelligencepb.AnnotateVideoRequest, error) {
	req := &videointelligencepb.AnnotateVideoRequest{
		Features: []videointelligencepb.Feature{feature},
	}
	if strings.HasPrefix(input, "gs://") {
		req.InputUri = input
		return req, nil
	}
	b, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	req.InputContent = b
	return req, nil
}

// annotate runs req behind the progress indicator and returns the results
// for the single video it names.
func annotate(ctx context.Context, w io.Writer, c *vi.Client, req *videointelligencepb.AnnotateVideoRequest, timeout time.Duration) (*videointelligencepb.VideoAnnotationResults, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op, err := c.AnnotateVideo(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate video: %w", err)
	}
	resp, err := progress.Wait(ctx, w, "Processing video for "+featureLabel(req.GetFeatures()), func(ctx context.Context) (*videointelligencepb.AnnotateVideoResponse, error) {
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to annotate video: %w", err)
	}
	if len(resp.GetAnnotationResults()) == 0 {
		return &videointelligencepb.VideoAnnotationResults{}, nil
	}
	res := resp.GetAnnotationResults()[0]
	if e := res.GetError(); e != nil {
		return nil, fmt.Errorf("failed to annotate %s: %s", res.GetInputUri(), e.GetMessage())
	}
	return res, nil
}

func featureLabel(features []videointelligencepb.Feature) string {
	if len(features) == 0 {
		return "analysis"
	}
	return strings.ToLower(strings.ReplaceAll(features[0].String(), "_", " "))
}

// seconds renders an offset as fractional seconds.
func seconds(d *durationpb.Duration) string {
	return fmt.Sprintf("%gs", d.AsDuration().Seconds())
}
