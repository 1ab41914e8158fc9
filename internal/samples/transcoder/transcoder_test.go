// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package transcoder

import (
	"bytes"
	"context"
	"testing"
	"time"

	"cloud.google.com/go/video/transcoder/apiv1/transcoderpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/gcpctl/internal/gcptest"
)

const (
	testProject = gcptest.Project
	input       = "gs://bucket/in.mp4"
	output      = "gs://bucket/out/"
	image       = "gs://bucket/overlay.jpg"
)

func TestOffset(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{0, 0},
		{8.1, 8100 * time.Millisecond},
		{-3.5, 3500 * time.Millisecond},
		{12, 12 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Offset(tt.in).AsDuration(), "Offset(%v)", tt.in)
	}
}

func streamKeys(cfg *transcoderpb.JobConfig) []string {
	var keys []string
	for _, s := range cfg.GetElementaryStreams() {
		keys = append(keys, s.GetKey())
	}
	return keys
}

func TestCreateJobs(t *testing.T) {
	ctx := context.Background()
	c, fake := newClient(t)

	tests := []struct {
		name   string
		create func(*bytes.Buffer) error
		check  func(t *testing.T, job *transcoderpb.Job)
	}{
		{
			name: "preset",
			create: func(b *bytes.Buffer) error {
				return CreateJobFromPreset(ctx, b, c, testProject, DefaultLocation, input, output, DefaultPreset)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				assert.Equal(t, "preset/web-hd", job.GetTemplateId())
				assert.Equal(t, input, job.GetInputUri())
			},
		},
		{
			name: "ad hoc",
			create: func(b *bytes.Buffer) error {
				return CreateJobFromAdHoc(ctx, b, c, testProject, DefaultLocation, input, output)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				cfg := job.GetConfig()
				assert.Equal(t, []string{"video-stream0", "video-stream1", "audio-stream0"}, streamKeys(cfg))
				sd := cfg.GetElementaryStreams()[0].GetVideoStream().GetH264()
				assert.EqualValues(t, 550000, sd.GetBitrateBps())
				assert.EqualValues(t, 60, sd.GetFrameRate())
				assert.EqualValues(t, 640, sd.GetWidthPixels())
				assert.EqualValues(t, 360, sd.GetHeightPixels())
				hd := cfg.GetElementaryStreams()[1].GetVideoStream().GetH264()
				assert.EqualValues(t, 2500000, hd.GetBitrateBps())
				assert.EqualValues(t, 1280, hd.GetWidthPixels())
				audio := cfg.GetElementaryStreams()[2].GetAudioStream()
				assert.Equal(t, "aac", audio.GetCodec())
				assert.EqualValues(t, 64000, audio.GetBitrateBps())
				require.Len(t, cfg.GetMuxStreams(), 2)
				assert.Equal(t, "hd", cfg.GetMuxStreams()[1].GetKey())
				assert.Equal(t, []string{"video-stream1", "audio-stream0"}, cfg.GetMuxStreams()[1].GetElementaryStreams())
			},
		},
		{
			name: "static overlay",
			create: func(b *bytes.Buffer) error {
				return CreateJobWithStaticOverlay(ctx, b, c, testProject, DefaultLocation, input, image, output)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				overlays := job.GetConfig().GetOverlays()
				require.Len(t, overlays, 1)
				assert.Equal(t, image, overlays[0].GetImage().GetUri())
				assert.Equal(t, 0.5, overlays[0].GetImage().GetResolution().GetY())
				anims := overlays[0].GetAnimations()
				require.Len(t, anims, 2)
				assert.NotNil(t, anims[0].GetAnimationStatic())
				assert.EqualValues(t, 10, anims[1].GetAnimationEnd().GetStartTimeOffset().GetSeconds())
			},
		},
		{
			name: "animated overlay",
			create: func(b *bytes.Buffer) error {
				return CreateJobWithAnimatedOverlay(ctx, b, c, testProject, DefaultLocation, input, image, output)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				anims := job.GetConfig().GetOverlays()[0].GetAnimations()
				require.Len(t, anims, 2)
				assert.Equal(t, transcoderpb.Overlay_FADE_IN, anims[0].GetAnimationFade().GetFadeType())
				assert.Equal(t, transcoderpb.Overlay_FADE_OUT, anims[1].GetAnimationFade().GetFadeType())
				assert.EqualValues(t, 14, anims[1].GetAnimationFade().GetEndTimeOffset().GetSeconds())
			},
		},
		{
			name: "periodic sprite sheet",
			create: func(b *bytes.Buffer) error {
				return CreateJobWithPeriodicImagesSpritesheet(ctx, b, c, testProject, DefaultLocation, input, output)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				sheets := job.GetConfig().GetSpriteSheets()
				require.Len(t, sheets, 2)
				assert.Equal(t, "small-sprite-sheet", sheets[0].GetFilePrefix())
				assert.EqualValues(t, 7, sheets[0].GetInterval().GetSeconds())
				assert.EqualValues(t, 128, sheets[1].GetSpriteWidthPixels())
			},
		},
		{
			name: "set number sprite sheet",
			create: func(b *bytes.Buffer) error {
				return CreateJobWithSetNumberImagesSpritesheet(ctx, b, c, testProject, DefaultLocation, input, output)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				sheets := job.GetConfig().GetSpriteSheets()
				require.Len(t, sheets, 2)
				assert.EqualValues(t, 100, sheets[0].GetTotalCount())
				assert.EqualValues(t, 50, sheets[1].GetTotalCount())
			},
		},
		{
			name: "concatenated inputs",
			create: func(b *bytes.Buffer) error {
				return CreateJobWithConcatenatedInputs(ctx, b, c, testProject, DefaultLocation, []Clip{
					{URI: "gs://bucket/a.mp4", Start: 0, End: 8.1},
					{URI: "gs://bucket/b.mp4", Start: 3.5, End: 15},
				}, output)
			},
			check: func(t *testing.T, job *transcoderpb.Job) {
				cfg := job.GetConfig()
				require.Len(t, cfg.GetInputs(), 2)
				assert.Equal(t, "input2", cfg.GetInputs()[1].GetKey())
				require.Len(t, cfg.GetEditList(), 2)
				atom := cfg.GetEditList()[1]
				assert.Equal(t, "atom2", atom.GetKey())
				assert.Equal(t, []string{"input2"}, atom.GetInputs())
				assert.Equal(t, 3500*time.Millisecond, atom.GetStartTimeOffset().AsDuration())
				assert.Empty(t, job.GetInputUri())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, tt.create(&out))
			assert.Regexp(t, `^Job: projects/test-project/locations/us-central1/jobs/job-\d+\n$`, out.String())
			tt.check(t, fake.lastJob)
		})
	}

	err := CreateJobWithConcatenatedInputs(ctx, &bytes.Buffer{}, c, testProject, DefaultLocation, nil, output)
	assert.Error(t, err)
}

func TestJobLookups(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	require.NoError(t, CreateJobFromAdHoc(ctx, &bytes.Buffer{}, c, testProject, DefaultLocation, input, output))

	var out bytes.Buffer
	require.NoError(t, GetJob(ctx, &out, c, testProject, DefaultLocation, "job-1"))
	assert.Contains(t, out.String(), "\tInput: gs://bucket/in.mp4\n")

	out.Reset()
	require.NoError(t, GetJobState(ctx, &out, c, testProject, DefaultLocation, "job-1"))
	assert.Equal(t, "Job state: PENDING\n", out.String())

	rows, err := ListJobs(ctx, c, testProject, DefaultLocation)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "job-1", rows[0].ID)
	assert.Equal(t, "PENDING", rows[0].State)
	assert.NotEmpty(t, rows[0].Created)

	out.Reset()
	require.NoError(t, DeleteJob(ctx, &out, c, testProject, DefaultLocation, "job-1"))
	assert.Equal(t, "Deleted job\n", out.String())

	out.Reset()
	require.NoError(t, GetJobState(ctx, &out, c, testProject, DefaultLocation, "job-1"))
	assert.Equal(t, "Job job-1 not found.\n", out.String())
}

func TestJobTemplates(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	var out bytes.Buffer
	require.NoError(t, CreateJobTemplate(ctx, &out, c, testProject, DefaultLocation, "hd"))
	assert.Equal(t, "Job template: projects/test-project/locations/us-central1/jobTemplates/hd\n", out.String())

	out.Reset()
	require.NoError(t, CreateJobTemplate(ctx, &out, c, testProject, DefaultLocation, "hd"))
	assert.Equal(t, "Job template hd already exists.\n", out.String())

	require.NoError(t, CreateJobFromTemplate(ctx, &bytes.Buffer{}, c, testProject, DefaultLocation, input, output, "hd"))
	assert.Error(t, CreateJobFromTemplate(ctx, &bytes.Buffer{}, c, testProject, DefaultLocation, input, output, "missing"))

	rows, err := ListJobTemplates(ctx, c, testProject, DefaultLocation)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hd", rows[0].ID)
	assert.Equal(t, 3, rows[0].Streams)
	assert.Equal(t, 2, rows[0].Muxes)

	out.Reset()
	require.NoError(t, GetJobTemplate(ctx, &out, c, testProject, DefaultLocation, "hd"))
	assert.Contains(t, out.String(), "jobTemplates/hd")

	out.Reset()
	require.NoError(t, DeleteJobTemplate(ctx, &out, c, testProject, DefaultLocation, "hd"))
	require.NoError(t, GetJobTemplate(ctx, &out, c, testProject, DefaultLocation, "hd"))
	assert.Equal(t, "Deleted job template\nJob template hd not found.\n", out.String())
}
