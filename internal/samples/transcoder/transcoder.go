// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package transcoder holds the Transcoder API samples: jobs built from
// presets, templates or ad-hoc configs with overlays, sprite sheets and
// concatenated inputs, and job templates.
package transcoder

import (
	"context"
	"fmt"
	"math"
	"time"

	transcoder "cloud.google.com/go/video/transcoder/apiv1"
	"cloud.google.com/go/video/transcoder/apiv1/transcoderpb"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

const (
	// DefaultLocation is where jobs run when no location is given.
	DefaultLocation = "us-central1"
	// DefaultPreset is the preset create-job-from-preset uses.
	DefaultPreset = "preset/web-hd"
)

// NewClient returns a transcoder client.
func NewClient(ctx context.Context, f *gcp.Factory) (*transcoder.Client, error) {
	c, err := transcoder.NewClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcoder client: %w", err)
	}
	return c, nil
}

func locationPath(project, location string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, location)
}

func jobPath(project, location, jobID string) string {
	return fmt.Sprintf("%s/jobs/%s", locationPath(project, location), jobID)
}

func templatePath(project, location, templateID string) string {
	return fmt.Sprintf("%s/jobTemplates/%s", locationPath(project, location), templateID)
}

func h264Stream(key string, width, height, bitrate int32) *transcoderpb.ElementaryStream {
	return &transcoderpb.ElementaryStream{
		Key: key,
		ElementaryStream: &transcoderpb.ElementaryStream_VideoStream{
			VideoStream: &transcoderpb.VideoStream{
				CodecSettings: &transcoderpb.VideoStream_H264{
					H264: &transcoderpb.VideoStream_H264CodecSettings{
						BitrateBps:   bitrate,
						FrameRate:    60,
						HeightPixels: height,
						WidthPixels:  width,
					},
				},
			},
		},
	}
}

func sdStream() *transcoderpb.ElementaryStream {
	return h264Stream("video-stream0", 640, 360, 550000)
}

func hdStream() *transcoderpb.ElementaryStream {
	return h264Stream("video-stream1", 1280, 720, 2500000)
}

func audioStream() *transcoderpb.ElementaryStream {
	return &transcoderpb.ElementaryStream{
		Key: "audio-stream0",
		ElementaryStream: &transcoderpb.ElementaryStream_AudioStream{
			AudioStream: &transcoderpb.AudioStream{Codec: "aac", BitrateBps: 64000},
		},
	}
}

func mux(key, video string) *transcoderpb.MuxStream {
	return &transcoderpb.MuxStream{
		Key:               key,
		Container:         "mp4",
		ElementaryStreams: []string{video, "audio-stream0"},
	}
}

// sdConfig is the single-rendition config most samples extend.
func sdConfig() *transcoderpb.JobConfig {
	return &transcoderpb.JobConfig{
		ElementaryStreams: []*transcoderpb.ElementaryStream{sdStream(), audioStream()},
		MuxStreams:        []*transcoderpb.MuxStream{mux("sd", "video-stream0")},
	}
}

// adHocConfig renders an SD and an HD mp4.
func adHocConfig() *transcoderpb.JobConfig {
	return &transcoderpb.JobConfig{
		ElementaryStreams: []*transcoderpb.ElementaryStream{sdStream(), hdStream(), audioStream()},
		MuxStreams: []*transcoderpb.MuxStream{
			mux("sd", "video-stream0"),
			mux("hd", "video-stream1"),
		},
	}
}

func seconds(s int64) *durationpb.Duration {
	return &durationpb.Duration{Seconds: s}
}

// Offset converts fractional seconds into a duration. Negative values are
// taken as their magnitude.
func Offset(sec float64) *durationpb.Duration {
	return durationpb.New(time.Duration(math.Round(math.Abs(sec) * float64(time.Second))))
}
