// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	langsample "github.com/staranto/gcpctl/internal/samples/language"
)

var openLanguage = FromFactory(langsample.NewClient)

// languageInput returns --uri when set, else the arguments joined as text.
func languageInput(cmd *cli.Command) (string, error) {
	if uri := cmd.String("uri"); uri != "" {
		if !strings.HasPrefix(uri, "gs://") {
			return "", fmt.Errorf("--uri must be a gs:// URI, got %q", uri)
		}
		return uri, nil
	}
	text := strings.Join(cmd.Args().Slice(), " ")
	if text == "" {
		return "", fmt.Errorf("%s: give the text to analyze or --uri", cmd.Name)
	}
	return text, nil
}

func analyzeTextSample(name, usage string, fn func(context.Context, io.Writer, *language.Client, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"[text...]"},
		Run: With(openLanguage, func(ctx context.Context, s *Session, cmd *cli.Command, c *language.Client) error {
			in, err := languageInput(cmd)
			if err != nil {
				return err
			}
			return fn(ctx, s.Out, c, in)
		}),
	}
}

// LanguageCommandBuilder constructs the "language" command group.
func LanguageCommandBuilder(meta meta.Meta) *cli.Command {
	classify := List("classify", "classify content into categories", []string{"[text...]"}, nil,
		ListWith(openLanguage, func(ctx context.Context, _ *Session, cmd *cli.Command, c *language.Client) ([]*langsample.Category, error) {
			in, err := languageInput(cmd)
			if err != nil {
				return nil, err
			}
			return langsample.ClassifyText(ctx, c, in)
		}))

	return (&GroupBuilder{
		Name:  "language",
		Usage: "Natural Language samples",
		Meta:  meta,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "uri", Usage: "analyze the gs:// object instead of text"},
		},
		Samples: []Sample{
			analyzeTextSample("all", "annotate entities, syntax and sentiment at once", langsample.AnalyzeAll),
			analyzeTextSample("entities", "find named entities", langsample.AnalyzeEntities),
			analyzeTextSample("sentiment", "score document and sentence sentiment", langsample.AnalyzeSentiment),
			analyzeTextSample("syntax", "tag tokens with their part of speech", langsample.AnalyzeSyntax),
			analyzeTextSample("entity-sentiment", "score the sentiment towards each entity", langsample.AnalyzeEntitySentiment),
			classify,
		},
	}).Build()
}
