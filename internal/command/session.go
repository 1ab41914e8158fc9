// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/meta"
)

// Session carries what a sample needs for one invocation: the client factory
// built from the GCP flags and the writer results go to.
type Session struct {
	Meta    meta.Meta
	Factory *gcp.Factory
	Out     io.Writer

	metricsFile string
	registry    *prometheus.Registry
}

// NewSession builds the client factory from the command's GCP flags.
func NewSession(ctx context.Context, cmd *cli.Command) (*Session, error) {
	m := GetMeta(cmd)

	s := &Session{
		Meta:        m,
		Out:         writer(cmd),
		metricsFile: cmd.String("metrics-file"),
	}

	opts := []gcp.Option{
		gcp.WithProject(cmd.String("project")),
		gcp.WithCredentialsFile(cmd.String("credentials")),
		gcp.WithEndpoint(cmd.String("endpoint")),
		gcp.WithLogging(debugEnabled()),
	}
	if s.metricsFile != "" {
		s.registry = prometheus.NewRegistry()
		opts = append(opts, gcp.WithRegisterer(s.registry))
	}
	opts = append(opts, m.FactoryOptions...)

	f, err := gcp.NewFactory(ctx, opts...)
	if err != nil {
		return nil, err
	}
	s.Factory = f
	return s, nil
}

// Project resolves the project the sample runs in.
func (s *Session) Project(ctx context.Context) (string, error) {
	return s.Factory.Project(ctx)
}

// Close writes the collected RPC metrics when --metrics-file was given.
func (s *Session) Close() error {
	if s.registry == nil {
		return nil
	}
	f, err := os.Create(s.metricsFile)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer f.Close()
	if err := gcp.WriteMetrics(f, s.registry); err != nil {
		return err
	}
	log.Debugf("metrics written to %s", s.metricsFile)
	return nil
}

// writer is where a command's results go. It is the root command's Writer,
// which defaults to stdout.
func writer(cmd *cli.Command) io.Writer {
	if r := cmd.Root(); r != nil && r.Writer != nil {
		return r.Writer
	}
	return os.Stdout
}

func debugEnabled() bool {
	l, ok := log.Log.(*log.Logger)
	return ok && l.Level == log.DebugLevel
}
