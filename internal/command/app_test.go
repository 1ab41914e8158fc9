// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/gcptest"
)

// run builds a fresh command tree for args, runs it and returns what it
// wrote.
func run(t *testing.T, args []string, opts ...gcp.Option) (string, error) {
	t.Helper()
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GCPCTL_METRICS_FILE", "")

	app, err := InitApp(context.Background(), args, opts...)
	require.NoError(t, err)

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err = app.Run(context.Background(), args)
	return out.String(), err
}

func TestInitApp_Groups(t *testing.T) {
	app, err := InitApp(context.Background(), []string{"gcpctl"})
	require.NoError(t, err)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"bigtable", "datastore", "dialogflow", "firestore", "iot", "language",
		"parametermanager", "pubsub", "secretmanager", "spanner", "storage",
		"storagetransfer", "transcoder", "video", "completion",
	}, names)

	for _, g := range app.Commands {
		if g.Name == "completion" {
			continue
		}
		assert.NotEmpty(t, g.Commands, g.Name)

		seen := map[string]bool{}
		for _, s := range g.Commands {
			assert.False(t, seen[s.Name], "%s %s is defined twice", g.Name, s.Name)
			seen[s.Name] = true
			assert.NotEmpty(t, s.Usage, "%s %s", g.Name, s.Name)
		}

		for i := 1; i < len(g.Flags); i++ {
			assert.LessOrEqual(t, g.Flags[i-1].Names()[0], g.Flags[i].Names()[0], "%s flags are not sorted", g.Name)
		}
	}
}

func TestGroup_LocationFlag(t *testing.T) {
	app, err := InitApp(context.Background(), []string{"gcpctl"})
	require.NoError(t, err)

	hasLocation := func(name string) bool {
		for _, g := range app.Commands {
			if g.Name != name {
				continue
			}
			for _, f := range g.Flags {
				if f.Names()[0] == "location" {
					return true
				}
			}
		}
		return false
	}

	assert.True(t, hasLocation("secretmanager"))
	assert.True(t, hasLocation("transcoder"))
	assert.False(t, hasLocation("pubsub"))
}

func TestGroup_ListsSamples(t *testing.T) {
	out, err := run(t, []string{"gcpctl", "secretmanager"})
	require.NoError(t, err)
	assert.Contains(t, out, "create-secret")
	assert.Contains(t, out, "access-secret-version")
}

func TestGroup_UnknownSample(t *testing.T) {
	_, err := run(t, []string{"gcpctl", "pubsub", "no-such-sample"})
	assert.EqualError(t, err, `pubsub: unknown sample "no-such-sample"`)
}

func TestSample_MissingArguments(t *testing.T) {
	_, err := run(t, []string{"gcpctl", "pubsub", "create-topic"})
	assert.EqualError(t, err, "create-topic: missing arguments, usage: <topic>")
}

func TestSample_Schema(t *testing.T) {
	out, err := run(t, []string{"gcpctl", "pubsub", "list-topics", "--schema"})
	require.NoError(t, err)
	assert.Contains(t, out, "kms-key")
	assert.Contains(t, out, "retention")
}

func TestPubSub_EndToEnd(t *testing.T) {
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	opts := []gcp.Option{
		gcp.WithProject(gcptest.Project),
		gcp.WithClientOptions(gcptest.Options(gcptest.Dial(t, srv.Addr))...),
	}

	for _, topic := range []string{"orders", "invoices"} {
		out, err := run(t, []string{"gcpctl", "pubsub", "create-topic", topic}, opts...)
		require.NoError(t, err)
		assert.Contains(t, out, "Topic created: projects/test-project/topics/"+topic)
	}

	out, err := run(t, []string{"gcpctl", "pubsub", "create-topic", "orders"}, opts...)
	require.NoError(t, err)
	assert.Equal(t, "Topic orders already exists.\n", out)

	out, err = run(t, []string{"gcpctl", "pubsub", "list-topics", "--no-short", "-o", "json"}, opts...)
	require.NoError(t, err)
	assert.Contains(t, out, "projects/test-project/topics/orders")
	assert.Contains(t, out, "projects/test-project/topics/invoices")

	out, err = run(t, []string{"gcpctl", "pubsub", "list-topics", "-o", "json"}, opts...)
	require.NoError(t, err)
	assert.NotContains(t, out, "projects/test-project/topics/orders")
	assert.Contains(t, out, "..orders")
}

func TestWriteCompletion(t *testing.T) {
	app, err := InitApp(context.Background(), []string{"gcpctl"})
	require.NoError(t, err)

	tests := []struct {
		shell string
		want  []string
	}{
		{"bash", []string{"complete -F _gcpctl gcpctl", "pubsub)", "create-topic", "--project", "--location"}},
		{"zsh", []string{"#compdef gcpctl", "'pubsub:", "'create-topic:create a topic'", "--output"}},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, WriteCompletion(&out, app, tt.shell))
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
			assert.NotContains(t, out.String(), "completion)\n        opts=")
		})
	}

	var out bytes.Buffer
	assert.ErrorContains(t, WriteCompletion(&out, app, "fish"), `unsupported shell "fish"`)
	assert.Zero(t, out.Len())
}

func TestCompletionTree(t *testing.T) {
	root := &cli.Command{
		Name: "gcpctl",
		Commands: []*cli.Command{
			{
				Name:  "zeta",
				Usage: "z: samples",
				Flags: []cli.Flag{&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output [format]"}},
				Commands: []*cli.Command{
					{Name: "one", Usage: "it's one", Flags: []cli.Flag{&cli.IntFlag{Name: "count"}}},
				},
			},
			{Name: "alpha", Usage: "a"},
			{Name: "hidden", Hidden: true},
			{Name: "completion"},
		},
	}

	data := completionTree(root)
	assert.Equal(t, "alpha zeta", data.Names)
	require.Len(t, data.Groups, 2)

	z := data.Groups[0]
	assert.Equal(t, "zeta", z.Name)
	assert.Equal(t, `z\: samples`, z.Usage)
	assert.Equal(t, "--output -o", z.Flags)
	assert.Equal(t, []string{`'(-o --output)'{-o,--output}'[output \[format\]]'`}, z.Specs)
	assert.Equal(t, "one", z.Names)
	assert.Equal(t, []completionSample{{Name: "one", Usage: `it'\''s one`, Flags: "--count"}}, z.Samples)

	assert.True(t, strings.HasPrefix(data.Groups[1].Name, "alpha"))
}
