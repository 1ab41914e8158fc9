// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package parametermanager

import (
	"context"
	"fmt"
	"io"

	pm "cloud.google.com/go/parametermanager/apiv1"
	"cloud.google.com/go/parametermanager/apiv1/parametermanagerpb"
)

// QuickstartPayload is the JSON the quickstart stores.
const QuickstartPayload = `{"username": "test-user", "host": "localhost"}`

// Quickstart creates a JSON parameter with one version and reads it back.
// It serves both the global and the regional quickstart.
func Quickstart(ctx context.Context, w io.Writer, c *pm.Client, loc Location, paramID, versionID string) error {
	p, err := createParam(ctx, c, loc, paramID, &parametermanagerpb.Parameter{
		Format: parametermanagerpb.ParameterFormat_JSON,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s %s with format %s\n", loc.noun(), p.GetName(), p.GetFormat())

	if err := createVersion(ctx, w, c, loc, paramID, versionID, []byte(QuickstartPayload)); err != nil {
		return err
	}

	v, err := c.GetParameterVersion(ctx, &parametermanagerpb.GetParameterVersionRequest{Name: loc.version(paramID, versionID)})
	if err != nil {
		return fmt.Errorf("failed to get version %s of %s: %w", versionID, paramID, err)
	}
	fmt.Fprintf(w, "Payload: %s\n", v.GetPayload().GetData())
	return nil
}
