// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/attrs"
	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/meta"
	"github.com/staranto/gcpctl/internal/output"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr gcpctl <group>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, group string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "gcpctl", group)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the attributes of the provided row type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(w io.Writer, cmd *cli.Command, t reflect.Type) bool {
	if t != nil && cmd.Bool("schema") {
		output.DumpSchema(w, "", t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// SchemaAttrs returns .id followed by every attribute of the row type. It is
// the default attribute list of a list sample.
func SchemaAttrs(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	defaults := []string{".id"}
	for _, tag := range output.DumpSchemaWalker("", t, 0) {
		defaults = append(defaults, tag.Name)
	}
	return defaults
}

// EmitJSONAPISlice marshals a slice as JSONAPI and passes it to the common
// output routine.
func EmitJSONAPISlice(w io.Writer, results any, al attrs.AttrList, cmd *cli.Command) error {
	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, results); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	var postProcess func([]map[string]interface{}) error
	if cmd.Bool("short") {
		postProcess = func(dataset []map[string]interface{}) error {
			chopPrefixes(dataset)
			return nil
		}
	}
	output.SliceDiceSpit(raw, al, cmd, "data", w, postProcess)
	return nil
}

// GetMeta returns the meta.Meta stored in the root command's Metadata. If
// missing or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil {
		return meta.Meta{}
	}
	root := cmd.Root()
	if root == nil || root.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := root.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// RunFunc runs one sample.
type RunFunc func(context.Context, *Session, *cli.Command) error

// Sample describes one sample subcommand of a command group.
type Sample struct {
	Name  string
	Usage string
	// Args names the positional arguments. See ArgsValidator.
	Args  []string
	Flags []cli.Flag
	// Schema is the row type of a list sample. It enables --schema.
	Schema reflect.Type
	Run    RunFunc
}

// WithFlags returns a copy of the sample with flags added.
func (s Sample) WithFlags(flags ...cli.Flag) Sample {
	s.Flags = append(append([]cli.Flag{}, s.Flags...), flags...)
	return s
}

// Build returns the sample's cli.Command. The action short-circuits --tldr
// and --schema, validates the arguments and runs the sample in a Session.
func (s Sample) Build(group string) *cli.Command {
	return &cli.Command{
		Name:      s.Name,
		Usage:     s.Usage,
		ArgsUsage: usageArgs(s.Args),
		Flags:     s.Flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := GetMeta(cmd)
			if len(m.Args) > 1 {
				log.Debugf("Executing action for %v", m.Args[1:])
			}

			if ShortCircuitTLDR(ctx, cmd, group) {
				return nil
			}
			if DumpSchemaIfRequested(writer(cmd), cmd, s.Schema) {
				return nil
			}
			if err := ArgsValidator(cmd, s.Args); err != nil {
				return err
			}

			sess, err := NewSession(ctx, cmd)
			if err != nil {
				return err
			}
			runErr := s.Run(ctx, sess, cmd)
			if err := sess.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
}

// ListActionRunner[T] encapsulates the common list action pattern: it builds
// the attribute list, fetches the rows and emits them through the output
// pipeline.
type ListActionRunner[T any] struct {
	CommandName  string
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]T, error)
}

// Run executes the list action with the provided context and command.
func (lar *ListActionRunner[T]) Run(ctx context.Context, cmd *cli.Command, w io.Writer) error {
	attrs := BuildAttrs(cmd, lar.DefaultAttrs...)
	log.Debugf("%s attrs: %v", lar.CommandName, attrs)

	results, err := lar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}

	return EmitJSONAPISlice(w, results, attrs, cmd)
}

// List builds a list sample. Its rows go through the output pipeline with
// every attribute of T shown by default.
func List[T any](name, usage string, args []string, flags []cli.Flag, fetch func(context.Context, *Session, *cli.Command) ([]T, error)) Sample {
	schema := reflect.TypeOf((*T)(nil)).Elem()
	return Sample{
		Name:   name,
		Usage:  usage,
		Args:   args,
		Flags:  flags,
		Schema: schema,
		Run: func(ctx context.Context, s *Session, cmd *cli.Command) error {
			runner := &ListActionRunner[T]{
				CommandName:  name,
				DefaultAttrs: SchemaAttrs(schema),
				FetchFn: func(ctx context.Context, cmd *cli.Command) ([]T, error) {
					return fetch(ctx, s, cmd)
				},
			}
			return runner.Run(ctx, cmd, s.Out)
		},
	}
}

type closer interface {
	Close() error
}

// OpenFunc opens the client a sample needs.
type OpenFunc[C any] func(context.Context, *Session, *cli.Command) (C, error)

// FromFactory adapts a client constructor that only needs the factory.
func FromFactory[C any](newClient func(context.Context, *gcp.Factory) (C, error)) OpenFunc[C] {
	return func(ctx context.Context, s *Session, _ *cli.Command) (C, error) {
		return newClient(ctx, s.Factory)
	}
}

// With opens a client, runs fn with it and closes it.
func With[C closer](open OpenFunc[C], fn func(context.Context, *Session, *cli.Command, C) error) RunFunc {
	return func(ctx context.Context, s *Session, cmd *cli.Command) error {
		c, err := open(ctx, s, cmd)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck
		return fn(ctx, s, cmd, c)
	}
}

// ListWith is With for list samples.
func ListWith[C closer, T any](open OpenFunc[C], fn func(context.Context, *Session, *cli.Command, C) ([]T, error)) func(context.Context, *Session, *cli.Command) ([]T, error) {
	return func(ctx context.Context, s *Session, cmd *cli.Command) ([]T, error) {
		c, err := open(ctx, s, cmd)
		if err != nil {
			return nil, err
		}
		defer c.Close() //nolint:errcheck
		return fn(ctx, s, cmd, c)
	}
}

// ProjectFunc is a sample body that needs the resolved project.
type ProjectFunc[C any] func(ctx context.Context, w io.Writer, c C, project string, cmd *cli.Command) error

// WithProject is With for samples that need the resolved project.
func WithProject[C closer](open OpenFunc[C], fn ProjectFunc[C]) RunFunc {
	return With(open, func(ctx context.Context, s *Session, cmd *cli.Command, c C) error {
		project, err := s.Project(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, s.Out, c, project, cmd)
	})
}

// ListWithProject is ListWith for list samples that need the resolved
// project.
func ListWithProject[C closer, T any](open OpenFunc[C], fn func(ctx context.Context, c C, project string, cmd *cli.Command) ([]T, error)) func(context.Context, *Session, *cli.Command) ([]T, error) {
	return ListWith(open, func(ctx context.Context, s *Session, cmd *cli.Command, c C) ([]T, error) {
		project, err := s.Project(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx, c, project, cmd)
	})
}

// GroupBuilder constructs a command group: one service with a subcommand
// per sample. The group carries the output and GCP flags for its samples.
type GroupBuilder struct {
	Name  string
	Usage string
	// Location is the service's default location. Empty means the service
	// has no --location flag.
	Location string
	Flags    []cli.Flag
	Samples  []Sample
	Meta     meta.Meta
}

// Build returns the configured group command. Run without a sample it lists
// the samples.
func (gb *GroupBuilder) Build() *cli.Command {
	gcpParams := []string{gb.Name}
	if gb.Location != "" {
		gcpParams = append(gcpParams, gb.Location)
	}

	flags := append([]cli.Flag{}, gb.Flags...)
	flags = append(flags, newTLDRFlag(), newSchemaFlag())
	flags = append(flags, NewGlobalFlags(gb.Name)...)
	flags = append(flags, NewGCPFlags(gcpParams...)...)

	group := &cli.Command{
		Name:      gb.Name,
		Usage:     gb.Usage,
		UsageText: fmt.Sprintf("gcpctl %s <sample> [options] [args]", gb.Name),
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if ShortCircuitTLDR(ctx, cmd, gb.Name) {
				return nil
			}
			if cmd.Args().Present() {
				return fmt.Errorf("%s: unknown sample %q", gb.Name, cmd.Args().First())
			}
			examples := make([][2]string, 0, len(gb.Samples))
			for _, s := range gb.Samples {
				examples = append(examples, [2]string{s.Name, s.Usage})
			}
			output.DumpExamples(writer(cmd), examples)
			return nil
		},
	}

	for _, s := range gb.Samples {
		group.Commands = append(group.Commands, s.Build(gb.Name))
	}

	return group
}

// Positional argument helpers. Arguments have been counted by
// ArgsValidator before the sample runs.

func arg(cmd *cli.Command, i int) string {
	return cmd.Args().Get(i)
}

func argOr(cmd *cli.Command, i int, def string) string {
	if v := cmd.Args().Get(i); v != "" {
		return v
	}
	return def
}

func rest(cmd *cli.Command, i int) []string {
	all := cmd.Args().Slice()
	if i >= len(all) {
		return nil
	}
	return all[i:]
}

func argInt(cmd *cli.Command, i int) (int, error) {
	n, err := strconv.Atoi(arg(cmd, i))
	if err != nil {
		return 0, fmt.Errorf("argument %d must be an integer: %w", i+1, err)
	}
	return n, nil
}

func argInt64(cmd *cli.Command, i int) (int64, error) {
	n, err := strconv.ParseInt(arg(cmd, i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d must be an integer: %w", i+1, err)
	}
	return n, nil
}

func argFloat(cmd *cli.Command, i int) (float64, error) {
	f, err := strconv.ParseFloat(arg(cmd, i), 64)
	if err != nil {
		return 0, fmt.Errorf("argument %d must be a number: %w", i+1, err)
	}
	return f, nil
}
