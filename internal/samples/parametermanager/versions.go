// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package parametermanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	pm "cloud.google.com/go/parametermanager/apiv1"
	"cloud.google.com/go/parametermanager/apiv1/parametermanagerpb"
	"github.com/tidwall/gjson"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/staranto/gcpctl/internal/differ"
	"github.com/staranto/gcpctl/internal/gcp"
)

// Version is a row of list-param-versions.
type Version struct {
	ID       string `jsonapi:"primary,parameter-versions"`
	Name     string `jsonapi:"attr,name"`
	Disabled bool   `jsonapi:"attr,disabled"`
	Created  string `jsonapi:"attr,create-time"`
}

// SecretReference is the payload placeholder the service replaces with the
// secret version's data when a version is rendered.
func SecretReference(secretVersion string) string {
	return fmt.Sprintf("__REF__(//secretmanager.googleapis.com/%s)", secretVersion)
}

func createVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string, data []byte) error {
	v, err := c.CreateParameterVersion(ctx, &parametermanagerpb.CreateParameterVersionRequest{
		Parent:             loc.param(paramID),
		ParameterVersionId: versionID,
		ParameterVersion: &parametermanagerpb.ParameterVersion{
			Payload: &parametermanagerpb.ParameterVersionPayload{Data: data},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create version %s of %s: %w", versionID, paramID, err)
	}
	fmt.Fprintf(w, "Created %s version: %s\n", loc.noun(), v.GetName())
	return nil
}

// CreateParamVersion adds a version holding data as is.
func CreateParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID, data string) error {
	return createVersion(ctx, w, c, loc, paramID, versionID, []byte(data))
}

// CreateStructuredParamVersion adds a version holding a JSON document.
func CreateStructuredParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID, payload string) error {
	if !gjson.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}
	return createVersion(ctx, w, c, loc, paramID, versionID, []byte(payload))
}

// CreateParamVersionWithSecret adds a JSON version whose password is a
// reference to a Secret Manager version, for example
// projects/p/secrets/s/versions/latest.
func CreateParamVersionWithSecret(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID, secretVersion string) error {
	payload := fmt.Sprintf(`{"username": "test-user", "password": "%s"}`, SecretReference(secretVersion))
	return createVersion(ctx, w, c, loc, paramID, versionID, []byte(payload))
}

// GetParamVersion prints a version and its raw payload.
func GetParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string) error {
	v, err := c.GetParameterVersion(ctx, &parametermanagerpb.GetParameterVersionRequest{Name: loc.version(paramID, versionID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Parameter version %s not found.\n", versionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version %s of %s: %w", versionID, paramID, err)
	}
	state := "enabled"
	if v.GetDisabled() {
		state = "disabled"
	}
	fmt.Fprintf(w, "Found %s version %s with state %s\n", loc.noun(), v.GetName(), state)
	if !v.GetDisabled() {
		fmt.Fprintf(w, "Payload: %s\n", v.GetPayload().GetData())
	}
	return nil
}

// ListParamVersions returns the parameter's versions.
func ListParamVersions(ctx context.Context, c *pm.Client, loc Location, paramID string) ([]*Version, error) {
	var rows []*Version
	it := c.ListParameterVersions(ctx, &parametermanagerpb.ListParameterVersionsRequest{Parent: loc.param(paramID)})
	for {
		v, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list versions of %s: %w", paramID, err)
		}
		row := &Version{
			ID:       path.Base(v.GetName()),
			Name:     v.GetName(),
			Disabled: v.GetDisabled(),
		}
		if t := v.GetCreateTime(); t != nil {
			row.Created = t.AsTime().Format("2006-01-02T15:04:05Z07:00")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func render(ctx context.Context, c *pm.Client, loc Location, paramID, versionID string) ([]byte, error) {
	resp, err := c.RenderParameterVersion(ctx, &parametermanagerpb.RenderParameterVersionRequest{Name: loc.version(paramID, versionID)})
	if err != nil {
		return nil, fmt.Errorf("failed to render version %s of %s: %w", versionID, paramID, err)
	}
	return resp.GetRenderedPayload(), nil
}

// RenderParamVersion prints the payload with every secret reference
// replaced by the secret's data.
func RenderParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string) error {
	payload, err := render(ctx, c, loc, paramID, versionID)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Parameter version %s not found.\n", versionID)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Rendered %s version payload: %s\n", loc.noun(), payload)
	return nil
}

func setDisabled(ctx context.Context, c *pm.Client, loc Location, paramID, versionID string, disabled bool) (*parametermanagerpb.ParameterVersion, error) {
	v, err := c.UpdateParameterVersion(ctx, &parametermanagerpb.UpdateParameterVersionRequest{
		ParameterVersion: &parametermanagerpb.ParameterVersion{
			Name:     loc.version(paramID, versionID),
			Disabled: disabled,
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"disabled"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update version %s of %s: %w", versionID, paramID, err)
	}
	return v, nil
}

// EnableParamVersion enables a version.
func EnableParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string) error {
	v, err := setDisabled(ctx, c, loc, paramID, versionID, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Enabled %s version %s for %s %s\n", loc.noun(), v.GetName(), loc.noun(), paramID)
	return nil
}

// DisableParamVersion disables a version. Disabled versions cannot be
// rendered or read.
func DisableParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string) error {
	v, err := setDisabled(ctx, c, loc, paramID, versionID, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Disabled %s version %s for %s %s\n", loc.noun(), v.GetName(), loc.noun(), paramID)
	return nil
}

// DeleteParamVersion deletes a version.
func DeleteParamVersion(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string) error {
	err := c.DeleteParameterVersion(ctx, &parametermanagerpb.DeleteParameterVersionRequest{Name: loc.version(paramID, versionID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Parameter version %s not found.\n", versionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete version %s of %s: %w", versionID, paramID, err)
	}
	fmt.Fprintf(w, "Deleted %s version: %s\n", loc.noun(), loc.version(paramID, versionID))
	return nil
}

// CompareParamVersions prints a diff of two rendered versions and reports
// whether they differ.
func CompareParamVersions(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, a, b string, opts differ.Options) (bool, error) {
	left, err := render(ctx, c, loc, paramID, a)
	if err != nil {
		return false, err
	}
	right, err := render(ctx, c, loc, paramID, b)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(w, "Comparing %s with %s\n", a, b)
	return differ.Diff(w, left, right, opts)
}
