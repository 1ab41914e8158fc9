// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
)

const bashCompletionScript = `# bash completion for gcpctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_gcpctl()
{
    local cur prev group sample opts i
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "{{.Names}} completion --help --version" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    group=${COMP_WORDS[1]}
    sample=""
    for (( i=2; i<COMP_CWORD; i++ )); do
        if [[ ${COMP_WORDS[i]} != -* ]]; then
            sample=${COMP_WORDS[i]}
            break
        fi
    done

    case "$group" in
{{- range .Groups}}
    {{.Name}})
        opts="{{.Flags}}"
        if [[ -z "$sample" && "$cur" != -* ]]; then
            COMPREPLY=( $(compgen -W "{{.Names}}" -- "$cur") )
            return 0
        fi
        case "$sample" in
{{- range .Samples}}{{if .Flags}}
        {{.Name}}) opts="$opts {{.Flags}}" ;;
{{- end}}{{end}}
        esac
        ;;
{{- end}}
    completion)
        COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
        return 0
        ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Sample arguments are often local files.
    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -F _gcpctl gcpctl
`

const zshCompletionScript = `#compdef gcpctl

_gcpctl() {
  local -a groups samples flags
  groups=(
{{- range .Groups}}
    '{{.Name}}:{{.Usage}}'
{{- end}}
    'completion:generate shell completion script'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'gcpctl command groups' groups
    return
  fi

  case $words[2] in
{{- range .Groups}}
    {{.Name}})
      samples=(
{{- range .Samples}}
        '{{.Name}}:{{.Usage}}'
{{- end}}
      )
      flags=(
{{- range .Specs}}
        {{.}}
{{- end}}
      )
      ;;
{{- end}}
    completion)
      _arguments '1: :((bash zsh))'
      return
      ;;
    *)
      return
      ;;
  esac

  if (( CURRENT == 3 )); then
    _describe -t samples 'samples' samples
    return
  fi

  _arguments -C $flags '*:file:_files'
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _gcpctl gcpctl
`

var (
	bashTemplate = template.Must(template.New("bash").Parse(bashCompletionScript))
	zshTemplate  = template.Must(template.New("zsh").Parse(zshCompletionScript))
)

type completionSample struct {
	Name  string
	Usage string
	Flags string
}

type completionGroup struct {
	Name    string
	Usage   string
	Flags   string
	Names   string
	Specs   []string
	Samples []completionSample
}

type completionData struct {
	Names  string
	Groups []completionGroup
}

// flagWords returns every name of every flag as it is typed.
func flagWords(flags []cli.Flag) string {
	var words []string
	for _, f := range flags {
		for _, n := range f.Names() {
			if len(n) == 1 {
				words = append(words, "-"+n)
			} else {
				words = append(words, "--"+n)
			}
		}
	}
	return strings.Join(words, " ")
}

var zshEscaper = strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)

func flagUsage(f cli.Flag) string {
	if u, ok := f.(interface{ GetUsage() string }); ok {
		return u.GetUsage()
	}
	return ""
}

// zshSpecs returns an _arguments spec per flag.
func zshSpecs(flags []cli.Flag) []string {
	specs := make([]string, 0, len(flags))
	for _, f := range flags {
		usage := zshEscaper.Replace(flagUsage(f))
		names := f.Names()
		long := "--" + names[0]
		if len(names) > 1 && len(names[1]) == 1 {
			short := "-" + names[1]
			specs = append(specs, fmt.Sprintf("'(%s %s)'{%s,%s}'[%s]'", short, long, short, long, usage))
			continue
		}
		specs = append(specs, fmt.Sprintf("'%s[%s]'", long, usage))
	}
	return specs
}

func completionTree(root *cli.Command) completionData {
	var data completionData
	var names []string
	for _, g := range root.Commands {
		if g.Name == "completion" || g.Hidden {
			continue
		}
		names = append(names, g.Name)

		group := completionGroup{
			Name:  g.Name,
			Usage: zshEscaper.Replace(g.Usage),
			Flags: flagWords(g.Flags),
			Specs: zshSpecs(g.Flags),
		}
		var sampleNames []string
		for _, s := range g.Commands {
			sampleNames = append(sampleNames, s.Name)
			group.Samples = append(group.Samples, completionSample{
				Name:  s.Name,
				Usage: zshEscaper.Replace(s.Usage),
				Flags: flagWords(s.Flags),
			})
		}
		group.Names = strings.Join(sampleNames, " ")
		data.Groups = append(data.Groups, group)
	}
	sort.Strings(names)
	data.Names = strings.Join(names, " ")
	return data
}

// WriteCompletion writes the completion script for shell, bash or zsh, of
// the command tree under root.
func WriteCompletion(w io.Writer, root *cli.Command, shell string) error {
	var t *template.Template
	switch shell {
	case "bash":
		t = bashTemplate
	case "zsh":
		t = zshTemplate
	default:
		return fmt.Errorf("unsupported shell %q, usage: gcpctl completion [bash|zsh]", shell)
	}
	return t.Execute(w, completionTree(root))
}

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := cmd.Args().First()
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		default:
			fmt.Fprintln(os.Stderr, "usage: gcpctl completion [bash|zsh]")
			return nil
		}
	}
	return WriteCompletion(writer(cmd), cmd.Root(), shell)
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "gcpctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
