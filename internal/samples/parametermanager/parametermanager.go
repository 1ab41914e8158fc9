// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package parametermanager holds the Parameter Manager samples. Parameters
// in the global location use the global endpoint; any other location is
// served by its regional endpoint.
package parametermanager

import (
	"context"
	"fmt"
	"strings"

	pm "cloud.google.com/go/parametermanager/apiv1"
	"cloud.google.com/go/parametermanager/apiv1/parametermanagerpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// DefaultLocation is the location parameters live in when none is given.
const DefaultLocation = "global"

// NewClient returns a client for location, on its regional endpoint unless
// location is global.
func NewClient(ctx context.Context, f *gcp.Factory, location string) (*pm.Client, error) {
	opts := f.ClientOptions(f.LocationOptions("parametermanager", location)...)
	c, err := pm.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create parameter manager client: %w", err)
	}
	return c, nil
}

// Location is the project and location parameters are created in.
type Location struct {
	Project  string
	Location string
}

func (l Location) name() string {
	loc := l.Location
	if loc == "" {
		loc = DefaultLocation
	}
	return fmt.Sprintf("projects/%s/locations/%s", l.Project, loc)
}

func (l Location) param(id string) string {
	return fmt.Sprintf("%s/parameters/%s", l.name(), id)
}

func (l Location) version(paramID, versionID string) string {
	return fmt.Sprintf("%s/versions/%s", l.param(paramID), versionID)
}

// noun is "parameter", or "regional parameter" outside the global location.
func (l Location) noun() string {
	if l.Location == "" || l.Location == DefaultLocation {
		return "parameter"
	}
	return "regional parameter"
}

// ParseFormat maps a --format value to a parameter format.
func ParseFormat(s string) (parametermanagerpb.ParameterFormat, error) {
	switch strings.ToUpper(s) {
	case "", "UNFORMATTED":
		return parametermanagerpb.ParameterFormat_UNFORMATTED, nil
	case "YAML":
		return parametermanagerpb.ParameterFormat_YAML, nil
	case "JSON":
		return parametermanagerpb.ParameterFormat_JSON, nil
	}
	return parametermanagerpb.ParameterFormat_PARAMETER_FORMAT_UNSPECIFIED, fmt.Errorf("unknown format %q, want UNFORMATTED, YAML or JSON", s)
}
