// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/gcpctl/internal/config"
	"github.com/staranto/gcpctl/internal/gcp"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args           []string
	Config         config.Type
	Context        context.Context
	StartingDir    string
	// FactoryOptions are appended to the options built from the GCP flags.
	// Tests use them to point every client at an in-process fake.
	FactoryOptions []gcp.Option
}
