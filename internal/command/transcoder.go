// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"strconv"

	transcoder "cloud.google.com/go/video/transcoder/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	tcsample "github.com/staranto/gcpctl/internal/samples/transcoder"
)

var openTranscoder = FromFactory(tcsample.NewClient)

// locatedFunc is a sample body that needs the project and the --location.
type locatedFunc func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error

func transcoderSample(name, usage string, args []string, fn locatedFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  args,
		Run: WithProject(openTranscoder, func(ctx context.Context, w io.Writer, c *transcoder.Client, project string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, cmd.String("location"), cmd)
		}),
	}
}

// inputOutputSample builds a job sample over <input> <output>.
func inputOutputSample(name, usage string, fn func(context.Context, io.Writer, *transcoder.Client, string, string, string, string) error) Sample {
	return transcoderSample(name, usage, []string{"input", "output"},
		func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, location, arg(cmd, 0), arg(cmd, 1))
		})
}

// overlaySample builds a job sample over <input> <image> <output>.
func overlaySample(name, usage string, fn func(context.Context, io.Writer, *transcoder.Client, string, string, string, string, string) error) Sample {
	return transcoderSample(name, usage, []string{"input", "image", "output"},
		func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, location, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
		})
}

// idSample builds a sample over one job or template id.
func idSample(name, usage, id string, fn func(context.Context, io.Writer, *transcoder.Client, string, string, string) error) Sample {
	return transcoderSample(name, usage, []string{id},
		func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, location, arg(cmd, 0))
		})
}

// parseClips reads input/start/end triples. The last argument is the output.
func parseClips(args []string) ([]tcsample.Clip, error) {
	if len(args)%3 != 0 {
		return nil, fmt.Errorf("inputs come in <input> <start> <end> triples, got %d values", len(args))
	}
	clips := make([]tcsample.Clip, 0, len(args)/3)
	for i := 0; i < len(args); i += 3 {
		start, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("start of %s must be seconds: %w", args[i], err)
		}
		end, err := strconv.ParseFloat(args[i+2], 64)
		if err != nil {
			return nil, fmt.Errorf("end of %s must be seconds: %w", args[i], err)
		}
		if end <= start {
			return nil, fmt.Errorf("end of %s must be after its start", args[i])
		}
		clips = append(clips, tcsample.Clip{URI: args[i], Start: start, End: end})
	}
	return clips, nil
}

// TranscoderCommandBuilder constructs the "transcoder" command group.
func TranscoderCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:     "transcoder",
		Usage:    "Transcoder API samples",
		Location: tcsample.DefaultLocation,
		Meta:     meta,
		Samples: []Sample{
			// Jobs.
			transcoderSample("create-job-from-preset", "transcode with a preset", []string{"input", "output"},
				func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error {
					return tcsample.CreateJobFromPreset(ctx, w, c, project, location, arg(cmd, 0), arg(cmd, 1), cmd.String("preset"))
				}).WithFlags(&cli.StringFlag{Name: "preset", Usage: "job preset", Value: tcsample.DefaultPreset}),
			transcoderSample("create-job-from-template", "transcode with a job template", []string{"input", "output", "template"},
				func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error {
					return tcsample.CreateJobFromTemplate(ctx, w, c, project, location, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			inputOutputSample("create-job-from-ad-hoc", "transcode with an inline SD and HD config", tcsample.CreateJobFromAdHoc),
			overlaySample("create-job-with-static-overlay", "overlay an image for the first second", tcsample.CreateJobWithStaticOverlay),
			overlaySample("create-job-with-animated-overlay", "fade an image in and out", tcsample.CreateJobWithAnimatedOverlay),
			inputOutputSample("create-job-with-periodic-images-spritesheet", "generate a spritesheet every few seconds", tcsample.CreateJobWithPeriodicImagesSpritesheet),
			inputOutputSample("create-job-with-set-number-images-spritesheet", "generate a spritesheet of a fixed number of images", tcsample.CreateJobWithSetNumberImagesSpritesheet),
			transcoderSample("create-job-with-concatenated-inputs", "join trimmed clips into one output",
				[]string{"input", "start", "end", "[input start end...]", "output"},
				func(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, cmd *cli.Command) error {
					args := cmd.Args().Slice()
					clips, err := parseClips(args[:len(args)-1])
					if err != nil {
						return err
					}
					return tcsample.CreateJobWithConcatenatedInputs(ctx, w, c, project, location, clips, args[len(args)-1])
				}),
			idSample("get-job", "print a job", "job", tcsample.GetJob),
			idSample("get-job-state", "print a job's state", "job", tcsample.GetJobState),
			List("list-jobs", "list the jobs of a location", nil, nil,
				ListWithProject(openTranscoder, func(ctx context.Context, c *transcoder.Client, project string, cmd *cli.Command) ([]*tcsample.Job, error) {
					return tcsample.ListJobs(ctx, c, project, cmd.String("location"))
				})),
			idSample("delete-job", "delete a job", "job", tcsample.DeleteJob),

			// Job templates.
			idSample("create-job-template", "create an SD and HD job template", "template", tcsample.CreateJobTemplate),
			idSample("get-job-template", "print a job template", "template", tcsample.GetJobTemplate),
			List("list-job-templates", "list the job templates of a location", nil, nil,
				ListWithProject(openTranscoder, func(ctx context.Context, c *transcoder.Client, project string, cmd *cli.Command) ([]*tcsample.JobTemplate, error) {
					return tcsample.ListJobTemplates(ctx, c, project, cmd.String("location"))
				})),
			idSample("delete-job-template", "delete a job template", "template", tcsample.DeleteJobTemplate),
		},
	}).Build()
}
