// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/command"
)

// docgen renders the docs of every command group from the live command tree:
//   - docs/commands/<group>.md, the canonical markdown
//   - docs/man/share/man1/gcpctl-<group>.1 via md2man
//   - docs/tldr/gcpctl-<group>.md from the group's first samples

// tldrExamples is how many samples a tldr page shows.
const tldrExamples = 6

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, dir := range []string{commandsDir, manOutDir, tldrOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatalf("creating output dir %s: %v", dir, err)
		}
	}

	app, err := command.InitApp(context.Background(), []string{"gcpctl"})
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	var processed int
	for _, group := range app.Commands {
		if group.Hidden || len(group.Commands) == 0 {
			continue
		}

		md := renderMarkdown(group)
		mdPath := filepath.Join(commandsDir, group.Name+".md")
		if err := writeFileIfChanged(mdPath, []byte(md), writeOnlyIfChanged); err != nil {
			fatalf("writing markdown for %s: %v", group.Name, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("gcpctl-%s.1", group.Name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(md)), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", group.Name, err)
		}

		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("gcpctl-%s.md", group.Name))
		if err := writeFileIfChanged(tldrPath, []byte(buildTLDR(group)), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", group.Name, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no command groups found")
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

func usageLine(group, sample *cli.Command) string {
	line := fmt.Sprintf("gcpctl %s %s", group.Name, sample.Name)
	if sample.ArgsUsage != "" {
		line += " " + sample.ArgsUsage
	}
	return line
}

func flagLine(f cli.Flag) string {
	var names []string
	for _, n := range f.Names() {
		if len(n) == 1 {
			names = append(names, "-"+n)
		} else {
			names = append(names, "--"+n)
		}
	}
	line := "`" + strings.Join(names, ", ") + "`"
	if u, ok := f.(interface{ GetUsage() string }); ok && u.GetUsage() != "" {
		line += ": " + u.GetUsage()
	}
	if d, ok := f.(interface{ GetDefaultText() string }); ok {
		if def := d.GetDefaultText(); def != "" && def != `""` {
			line += " (default " + def + ")"
		}
	}
	return line
}

func renderMarkdown(group *cli.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# gcpctl-%s 1\n\n", group.Name)
	b.WriteString("## NAME\n\n")
	fmt.Fprintf(&b, "gcpctl-%s - %s\n\n", group.Name, group.Usage)
	b.WriteString("## SYNOPSIS\n\n")
	fmt.Fprintf(&b, "`gcpctl %s <sample> [options] [args]`\n\n", group.Name)

	b.WriteString("## SAMPLES\n\n")
	for _, s := range group.Commands {
		fmt.Fprintf(&b, "### %s\n\n", s.Name)
		fmt.Fprintf(&b, "%s\n\n", s.Usage)
		fmt.Fprintf(&b, "`%s`\n\n", usageLine(group, s))
		for _, f := range s.Flags {
			fmt.Fprintf(&b, "- %s\n", flagLine(f))
		}
		if len(s.Flags) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("## OPTIONS\n\n")
	for _, f := range group.Flags {
		if v, ok := f.(cli.VisibleFlag); ok && !v.IsVisible() {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", flagLine(f))
	}
	return b.String()
}

func buildTLDR(group *cli.Command) string {
	var b strings.Builder
	b.WriteString("# gcpctl-" + group.Name + "\n\n")
	b.WriteString("> " + group.Usage + ".\n")
	b.WriteString("> More information: https://github.com/staranto/gcpctl.\n\n")

	b.WriteString("- List the samples:\n\n")
	b.WriteString("`gcpctl " + group.Name + "`\n")

	for i, s := range group.Commands {
		if i == tldrExamples {
			break
		}
		b.WriteString("\n- " + strings.ToUpper(s.Usage[:1]) + s.Usage[1:] + ":\n\n")
		b.WriteString("`" + tldrPlaceholders(usageLine(group, s)) + "`\n")
	}
	return b.String()
}

// tldrPlaceholders rewrites <arg> and [arg] as tldr {{arg}} placeholders.
func tldrPlaceholders(s string) string {
	r := strings.NewReplacer("<", "{{", ">", "}}", "[", "{{", "]", "}}")
	return r.Replace(s)
}
