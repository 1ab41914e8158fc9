// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	transcoder "cloud.google.com/go/video/transcoder/apiv1"
	"cloud.google.com/go/video/transcoder/apiv1/transcoderpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// Job is a row of list-jobs.
type Job struct {
	ID        string `jsonapi:"primary,jobs"`
	Name      string `jsonapi:"attr,name"`
	State     string `jsonapi:"attr,state"`
	InputURI  string `jsonapi:"attr,input-uri"`
	OutputURI string `jsonapi:"attr,output-uri"`
	Created   string `jsonapi:"attr,create-time"`
}

func createJob(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, job *transcoderpb.Job) error {
	resp, err := c.CreateJob(ctx, &transcoderpb.CreateJobRequest{
		Parent: locationPath(project, location),
		Job:    job,
	})
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	fmt.Fprintf(w, "Job: %s\n", resp.GetName())
	return nil
}

// CreateJobFromPreset transcodes input with a preset such as preset/web-hd.
func CreateJobFromPreset(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, output, preset string) error {
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_TemplateId{TemplateId: preset},
	})
}

// CreateJobFromTemplate transcodes input with a job template of the
// location.
func CreateJobFromTemplate(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, output, templateID string) error {
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_TemplateId{TemplateId: templateID},
	})
}

// CreateJobFromAdHoc transcodes input with an inline SD and HD config.
func CreateJobFromAdHoc(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, output string) error {
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_Config{Config: adHocConfig()},
	})
}

// CreateJobWithStaticOverlay shows an image in the top left corner for the
// first ten seconds.
func CreateJobWithStaticOverlay(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, image, output string) error {
	cfg := sdConfig()
	cfg.Overlays = []*transcoderpb.Overlay{{
		Image: &transcoderpb.Overlay_Image{
			Uri:        image,
			Resolution: &transcoderpb.Overlay_NormalizedCoordinate{X: 1, Y: 0.5},
			Alpha:      1,
		},
		Animations: []*transcoderpb.Overlay_Animation{
			{
				AnimationType: &transcoderpb.Overlay_Animation_AnimationStatic{
					AnimationStatic: &transcoderpb.Overlay_AnimationStatic{
						Xy:              &transcoderpb.Overlay_NormalizedCoordinate{X: 0, Y: 0},
						StartTimeOffset: seconds(0),
					},
				},
			},
			{
				AnimationType: &transcoderpb.Overlay_Animation_AnimationEnd{
					AnimationEnd: &transcoderpb.Overlay_AnimationEnd{StartTimeOffset: seconds(10)},
				},
			},
		},
	}}
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_Config{Config: cfg},
	})
}

// CreateJobWithAnimatedOverlay fades an image in at the centre of the frame
// and fades it out again.
func CreateJobWithAnimatedOverlay(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, image, output string) error {
	centre := &transcoderpb.Overlay_NormalizedCoordinate{X: 0.5, Y: 0.5}
	fade := func(t transcoderpb.Overlay_FadeType, start, end int64) *transcoderpb.Overlay_Animation {
		return &transcoderpb.Overlay_Animation{
			AnimationType: &transcoderpb.Overlay_Animation_AnimationFade{
				AnimationFade: &transcoderpb.Overlay_AnimationFade{
					FadeType:        t,
					Xy:              centre,
					StartTimeOffset: seconds(start),
					EndTimeOffset:   seconds(end),
				},
			},
		}
	}

	cfg := sdConfig()
	cfg.Overlays = []*transcoderpb.Overlay{{
		Image: &transcoderpb.Overlay_Image{
			Uri:        image,
			Resolution: &transcoderpb.Overlay_NormalizedCoordinate{X: 0, Y: 0},
			Alpha:      1,
		},
		Animations: []*transcoderpb.Overlay_Animation{
			fade(transcoderpb.Overlay_FADE_IN, 5, 7),
			fade(transcoderpb.Overlay_FADE_OUT, 12, 14),
		},
	}}
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_Config{Config: cfg},
	})
}

func spriteSheet(prefix string, width, height int32) *transcoderpb.SpriteSheet {
	return &transcoderpb.SpriteSheet{
		FilePrefix:         prefix,
		SpriteWidthPixels:  width,
		SpriteHeightPixels: height,
	}
}

// CreateJobWithPeriodicImagesSpritesheet captures a small and a large
// thumbnail every seven seconds.
func CreateJobWithPeriodicImagesSpritesheet(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, output string) error {
	small := spriteSheet("small-sprite-sheet", 64, 32)
	small.ExtractionStrategy = &transcoderpb.SpriteSheet_Interval{Interval: seconds(7)}
	large := spriteSheet("large-sprite-sheet", 128, 72)
	large.ExtractionStrategy = &transcoderpb.SpriteSheet_Interval{Interval: seconds(7)}

	cfg := sdConfig()
	cfg.SpriteSheets = []*transcoderpb.SpriteSheet{small, large}
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_Config{Config: cfg},
	})
}

// CreateJobWithSetNumberImagesSpritesheet captures 100 small and 50 large
// thumbnails spread over the video.
func CreateJobWithSetNumberImagesSpritesheet(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, input, output string) error {
	small := spriteSheet("small-sprite-sheet", 64, 32)
	small.ExtractionStrategy = &transcoderpb.SpriteSheet_TotalCount{TotalCount: 100}
	large := spriteSheet("large-sprite-sheet", 128, 72)
	large.ExtractionStrategy = &transcoderpb.SpriteSheet_TotalCount{TotalCount: 50}

	cfg := sdConfig()
	cfg.SpriteSheets = []*transcoderpb.SpriteSheet{small, large}
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		InputUri:  input,
		OutputUri: output,
		JobConfig: &transcoderpb.Job_Config{Config: cfg},
	})
}

// Clip is one input of a concatenation, trimmed to [Start, End] seconds.
type Clip struct {
	URI   string
	Start float64
	End   float64
}

// CreateJobWithConcatenatedInputs joins trimmed clips into one output.
func CreateJobWithConcatenatedInputs(ctx context.Context, w io.Writer, c *transcoder.Client, project, location string, clips []Clip, output string) error {
	if len(clips) == 0 {
		return errors.New("at least one input is required")
	}

	cfg := sdConfig()
	for i, clip := range clips {
		key := fmt.Sprintf("input%d", i+1)
		cfg.Inputs = append(cfg.Inputs, &transcoderpb.Input{Key: key, Uri: clip.URI})
		cfg.EditList = append(cfg.EditList, &transcoderpb.EditAtom{
			Key:             fmt.Sprintf("atom%d", i+1),
			Inputs:          []string{key},
			StartTimeOffset: Offset(clip.Start),
			EndTimeOffset:   Offset(clip.End),
		})
	}
	return createJob(ctx, w, c, project, location, &transcoderpb.Job{
		OutputUri: output,
		JobConfig: &transcoderpb.Job_Config{Config: cfg},
	})
}

// GetJob prints a job's name and input and output URIs.
func GetJob(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, jobID string) error {
	job, err := c.GetJob(ctx, &transcoderpb.GetJobRequest{Name: jobPath(project, location, jobID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Job %s not found.\n", jobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	fmt.Fprintf(w, "Job: %s\n", job.GetName())
	fmt.Fprintf(w, "\tInput: %s\n", job.GetInputUri())
	fmt.Fprintf(w, "\tOutput: %s\n", job.GetOutputUri())
	return nil
}

// GetJobState prints a job's processing state and any failure.
func GetJobState(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, jobID string) error {
	job, err := c.GetJob(ctx, &transcoderpb.GetJobRequest{Name: jobPath(project, location, jobID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Job %s not found.\n", jobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	fmt.Fprintf(w, "Job state: %s\n", job.GetState())
	if e := job.GetError(); e != nil {
		fmt.Fprintf(w, "Job error: %s\n", e.GetMessage())
	}
	return nil
}

// ListJobs returns the location's jobs.
func ListJobs(ctx context.Context, c *transcoder.Client, project, location string) ([]*Job, error) {
	var rows []*Job
	it := c.ListJobs(ctx, &transcoderpb.ListJobsRequest{Parent: locationPath(project, location)})
	for {
		j, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs: %w", err)
		}
		row := &Job{
			ID:        path.Base(j.GetName()),
			Name:      j.GetName(),
			State:     j.GetState().String(),
			InputURI:  j.GetInputUri(),
			OutputURI: j.GetOutputUri(),
		}
		if t := j.GetCreateTime(); t != nil {
			row.Created = t.AsTime().Format("2006-01-02T15:04:05Z07:00")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteJob deletes a job.
func DeleteJob(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, jobID string) error {
	err := c.DeleteJob(ctx, &transcoderpb.DeleteJobRequest{Name: jobPath(project, location, jobID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Job %s not found.\n", jobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", jobID, err)
	}
	fmt.Fprintln(w, "Deleted job")
	return nil
}
