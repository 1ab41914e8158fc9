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
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// Parameter is a row of list-params.
type Parameter struct {
	ID      string `jsonapi:"primary,parameters"`
	Name    string `jsonapi:"attr,name"`
	Format  string `jsonapi:"attr,format"`
	KMSKey  string `jsonapi:"attr,kms-key"`
	Created string `jsonapi:"attr,create-time"`
}

func createParam(ctx context.Context, c *pm.Client, loc Location, paramID string, p *parametermanagerpb.Parameter) (*parametermanagerpb.Parameter, error) {
	created, err := c.CreateParameter(ctx, &parametermanagerpb.CreateParameterRequest{
		Parent:      loc.name(),
		ParameterId: paramID,
		Parameter:   p,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s: %w", loc.noun(), paramID, err)
	}
	return created, nil
}

// CreateParam creates an unformatted parameter.
func CreateParam(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID string) error {
	p, err := createParam(ctx, c, loc, paramID, &parametermanagerpb.Parameter{})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s: %s\n", loc.noun(), p.GetName())
	return nil
}

// CreateStructuredParam creates a parameter whose versions must parse as
// format.
func CreateStructuredParam(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID string, format parametermanagerpb.ParameterFormat) error {
	p, err := createParam(ctx, c, loc, paramID, &parametermanagerpb.Parameter{Format: format})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s %s with format %s\n", loc.noun(), p.GetName(), p.GetFormat())
	return nil
}

// CreateParamWithKMSKey creates a parameter whose versions are encrypted
// with a customer managed key.
func CreateParamWithKMSKey(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, kmsKey string) error {
	p, err := createParam(ctx, c, loc, paramID, &parametermanagerpb.Parameter{KmsKey: proto.String(kmsKey)})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s %s with kms key %s\n", loc.noun(), p.GetName(), p.GetKmsKey())
	return nil
}

func updateKMSKey(ctx context.Context, c *pm.Client, loc Location, paramID string, kmsKey *string) (*parametermanagerpb.Parameter, error) {
	p, err := c.UpdateParameter(ctx, &parametermanagerpb.UpdateParameterRequest{
		Parameter: &parametermanagerpb.Parameter{
			Name:   loc.param(paramID),
			KmsKey: kmsKey,
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"kms_key"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update kms key of %s: %w", paramID, err)
	}
	return p, nil
}

// UpdateParamKMSKey switches a parameter to another key.
func UpdateParamKMSKey(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, kmsKey string) error {
	p, err := updateKMSKey(ctx, c, loc, paramID, proto.String(kmsKey))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Updated %s %s with kms key %s\n", loc.noun(), p.GetName(), p.GetKmsKey())
	return nil
}

// RemoveParamKMSKey returns a parameter to Google managed encryption.
func RemoveParamKMSKey(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID string) error {
	p, err := updateKMSKey(ctx, c, loc, paramID, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed kms key for %s %s\n", loc.noun(), p.GetName())
	return nil
}

// GetParam prints a parameter.
func GetParam(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID string) error {
	p, err := c.GetParameter(ctx, &parametermanagerpb.GetParameterRequest{Name: loc.param(paramID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Parameter %s not found.\n", paramID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get %s %s: %w", loc.noun(), paramID, err)
	}
	fmt.Fprintf(w, "Found %s %s with format %s\n", loc.noun(), p.GetName(), p.GetFormat())
	return nil
}

// ListParams returns the parameters of the location.
func ListParams(ctx context.Context, c *pm.Client, loc Location) ([]*Parameter, error) {
	var rows []*Parameter
	it := c.ListParameters(ctx, &parametermanagerpb.ListParametersRequest{Parent: loc.name()})
	for {
		p, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list parameters: %w", err)
		}
		row := &Parameter{
			ID:     path.Base(p.GetName()),
			Name:   p.GetName(),
			Format: p.GetFormat().String(),
			KMSKey: p.GetKmsKey(),
		}
		if t := p.GetCreateTime(); t != nil {
			row.Created = t.AsTime().Format("2006-01-02T15:04:05Z07:00")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteParam deletes a parameter that has no versions left.
func DeleteParam(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID string) error {
	err := c.DeleteParameter(ctx, &parametermanagerpb.DeleteParameterRequest{Name: loc.param(paramID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Parameter %s not found.\n", paramID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", loc.noun(), paramID, err)
	}
	fmt.Fprintf(w, "Deleted %s: %s\n", loc.noun(), loc.param(paramID))
	return nil
}
