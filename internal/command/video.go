// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"
	"time"

	vi "cloud.google.com/go/videointelligence/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	videosample "github.com/staranto/gcpctl/internal/samples/video"
)

var openVideo = FromFactory(videosample.NewClient)

type analyzeFunc func(context.Context, io.Writer, *vi.Client, string, time.Duration) error

func analyzeSample(name, usage string, fn analyzeFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"input"},
		Run: With(openVideo, func(ctx context.Context, s *Session, cmd *cli.Command, c *vi.Client) error {
			return fn(ctx, s.Out, c, arg(cmd, 0), cmd.Duration("timeout"))
		}),
	}
}

// VideoCommandBuilder constructs the "video" command group. Inputs are gs://
// URIs or local files.
func VideoCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "video",
		Usage: "Video Intelligence samples",
		Meta:  meta,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "how long to wait for an annotation",
				Value:   videosample.DefaultTimeout,
				Sources: cli.NewValueSourceChain(configSources("video", "timeout")...),
			},
		},
		Samples: []Sample{
			analyzeSample("labels", "detect labels at video, shot and frame level", videosample.AnalyzeLabels),
			analyzeSample("explicit-content", "rate explicit content per frame", videosample.AnalyzeExplicitContent),
			analyzeSample("shots", "detect shot changes", videosample.AnalyzeShots),
			analyzeSample("speech-transcription", "transcribe speech", videosample.AnalyzeTranscription),
			analyzeSample("text-detection", "detect text", videosample.AnalyzeTextDetection),
			analyzeSample("object-tracking", "track objects", videosample.AnalyzeObjectTracking),
		},
	}).Build()
}
