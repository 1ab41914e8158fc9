// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package language holds the Natural Language samples. Every sample takes
// either literal text or a gs:// URI.
package language

import (
	"context"
	"fmt"
	"io"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// NewClient returns a Natural Language client.
func NewClient(ctx context.Context, f *gcp.Factory) (*language.Client, error) {
	c, err := language.NewClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create language client: %w", err)
	}
	return c, nil
}

// Document wraps plain text, or the object at a gs:// URI, for analysis.
func Document(textOrURI string) *languagepb.Document {
	doc := &languagepb.Document{Type: languagepb.Document_PLAIN_TEXT}
	if strings.HasPrefix(textOrURI, "gs://") {
		doc.Source = &languagepb.Document_GcsContentUri{GcsContentUri: textOrURI}
	} else {
		doc.Source = &languagepb.Document_Content{Content: textOrURI}
	}
	return doc
}

func printEntities(w io.Writer, entities []*languagepb.Entity, withSentiment bool) {
	for _, e := range entities {
		fmt.Fprintf(w, "Name: %s\n", e.GetName())
		fmt.Fprintf(w, "Type: %s\n", e.GetType())
		fmt.Fprintf(w, "Salience: %v\n", e.GetSalience())
		if url, ok := e.GetMetadata()["wikipedia_url"]; ok {
			fmt.Fprintf(w, "Wikipedia URL: %s\n", url)
		}
		if mid, ok := e.GetMetadata()["mid"]; ok {
			fmt.Fprintf(w, "Knowledge Graph MID: %s\n", mid)
		}
		if withSentiment {
			fmt.Fprintf(w, "Magnitude: %v\n", e.GetSentiment().GetMagnitude())
			fmt.Fprintf(w, "Score: %v\n", e.GetSentiment().GetScore())
		}
		fmt.Fprintln(w, "Mentions:")
		for _, m := range e.GetMentions() {
			fmt.Fprintf(w, "  Begin Offset: %d\n", m.GetText().GetBeginOffset())
			fmt.Fprintf(w, "  Content: %s\n", m.GetText().GetContent())
			fmt.Fprintf(w, "  Mention Type: %s\n", m.GetType())
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
}

func printSentiment(w io.Writer, doc *languagepb.Sentiment, sentences []*languagepb.Sentence) {
	fmt.Fprintln(w, "Document Sentiment:")
	fmt.Fprintf(w, "  Magnitude: %v\n", doc.GetMagnitude())
	fmt.Fprintf(w, "  Score: %v\n", doc.GetScore())
	fmt.Fprintln(w)
	for _, s := range sentences {
		fmt.Fprintf(w, "Sentence: %s\n", s.GetText().GetContent())
		fmt.Fprintln(w, "Sentence Sentiment:")
		fmt.Fprintf(w, "  Magnitude: %v\n", s.GetSentiment().GetMagnitude())
		fmt.Fprintf(w, "  Score: %v\n", s.GetSentiment().GetScore())
		fmt.Fprintln(w)
	}
}

func printTokens(w io.Writer, tokens []*languagepb.Token) {
	for _, t := range tokens {
		fmt.Fprintf(w, "Token text: %s\n", t.GetText().GetContent())
		fmt.Fprintf(w, "Token part of speech: %s\n", t.GetPartOfSpeech().GetTag())
		fmt.Fprintln(w)
	}
}
