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

// JobTemplate is a row of list-job-templates.
type JobTemplate struct {
	ID      string `jsonapi:"primary,job-templates"`
	Name    string `jsonapi:"attr,name"`
	Streams int    `jsonapi:"attr,elementary-streams"`
	Muxes   int    `jsonapi:"attr,mux-streams"`
}

// CreateJobTemplate stores the SD and HD config as a reusable template.
func CreateJobTemplate(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, templateID string) error {
	t, err := c.CreateJobTemplate(ctx, &transcoderpb.CreateJobTemplateRequest{
		Parent:        locationPath(project, location),
		JobTemplateId: templateID,
		JobTemplate:   &transcoderpb.JobTemplate{Config: adHocConfig()},
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Job template %s already exists.\n", templateID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create job template %s: %w", templateID, err)
	}
	fmt.Fprintf(w, "Job template: %s\n", t.GetName())
	return nil
}

// GetJobTemplate prints a template's name.
func GetJobTemplate(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, templateID string) error {
	t, err := c.GetJobTemplate(ctx, &transcoderpb.GetJobTemplateRequest{Name: templatePath(project, location, templateID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Job template %s not found.\n", templateID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get job template %s: %w", templateID, err)
	}
	fmt.Fprintf(w, "Job template: %s\n", t.GetName())
	return nil
}

// ListJobTemplates returns the location's templates.
func ListJobTemplates(ctx context.Context, c *transcoder.Client, project, location string) ([]*JobTemplate, error) {
	var rows []*JobTemplate
	it := c.ListJobTemplates(ctx, &transcoderpb.ListJobTemplatesRequest{Parent: locationPath(project, location)})
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list job templates: %w", err)
		}
		rows = append(rows, &JobTemplate{
			ID:      path.Base(t.GetName()),
			Name:    t.GetName(),
			Streams: len(t.GetConfig().GetElementaryStreams()),
			Muxes:   len(t.GetConfig().GetMuxStreams()),
		})
	}
	return rows, nil
}

// DeleteJobTemplate deletes a template.
func DeleteJobTemplate(ctx context.Context, w io.Writer, c *transcoder.Client, project, location, templateID string) error {
	err := c.DeleteJobTemplate(ctx, &transcoderpb.DeleteJobTemplateRequest{Name: templatePath(project, location, templateID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Job template %s not found.\n", templateID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete job template %s: %w", templateID, err)
	}
	fmt.Fprintln(w, "Deleted job template")
	return nil
}
