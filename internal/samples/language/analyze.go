// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package language

import (
	"context"
	"fmt"
	"io"

	language "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"
)

// AnalyzeAll extracts entities, syntax and document sentiment in one call.
func AnalyzeAll(ctx context.Context, w io.Writer, c *language.Client, textOrURI string) error {
	resp, err := c.AnnotateText(ctx, &languagepb.AnnotateTextRequest{
		Document: Document(textOrURI),
		Features: &languagepb.AnnotateTextRequest_Features{
			ExtractEntities:          true,
			ExtractSyntax:            true,
			ExtractDocumentSentiment: true,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return fmt.Errorf("failed to annotate text: %w", err)
	}
	printEntities(w, resp.GetEntities(), false)
	printSentiment(w, resp.GetDocumentSentiment(), resp.GetSentences())
	printTokens(w, resp.GetTokens())
	return nil
}

// AnalyzeEntities prints the entities found in the text.
func AnalyzeEntities(ctx context.Context, w io.Writer, c *language.Client, textOrURI string) error {
	resp, err := c.AnalyzeEntities(ctx, &languagepb.AnalyzeEntitiesRequest{
		Document:     Document(textOrURI),
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze entities: %w", err)
	}
	printEntities(w, resp.GetEntities(), false)
	return nil
}

// AnalyzeSentiment prints the document and per-sentence sentiment.
func AnalyzeSentiment(ctx context.Context, w io.Writer, c *language.Client, textOrURI string) error {
	resp, err := c.AnalyzeSentiment(ctx, &languagepb.AnalyzeSentimentRequest{
		Document:     Document(textOrURI),
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze sentiment: %w", err)
	}
	printSentiment(w, resp.GetDocumentSentiment(), resp.GetSentences())
	return nil
}

// AnalyzeSyntax prints every token and its part of speech.
func AnalyzeSyntax(ctx context.Context, w io.Writer, c *language.Client, textOrURI string) error {
	resp, err := c.AnalyzeSyntax(ctx, &languagepb.AnalyzeSyntaxRequest{
		Document:     Document(textOrURI),
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze syntax: %w", err)
	}
	printTokens(w, resp.GetTokens())
	return nil
}

// AnalyzeEntitySentiment prints the entities with the sentiment expressed
// towards each.
func AnalyzeEntitySentiment(ctx context.Context, w io.Writer, c *language.Client, textOrURI string) error {
	resp, err := c.AnalyzeEntitySentiment(ctx, &languagepb.AnalyzeEntitySentimentRequest{
		Document:     Document(textOrURI),
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze entity sentiment: %w", err)
	}
	printEntities(w, resp.GetEntities(), true)
	return nil
}

// Category is a row of classify.
type Category struct {
	Name       string  `jsonapi:"primary,categories"`
	Confidence float32 `jsonapi:"attr,confidence"`
}

// ClassifyText returns the content categories of the text. The service
// needs at least twenty tokens to classify.
func ClassifyText(ctx context.Context, c *language.Client, textOrURI string) ([]*Category, error) {
	resp, err := c.ClassifyText(ctx, &languagepb.ClassifyTextRequest{Document: Document(textOrURI)})
	if err != nil {
		return nil, fmt.Errorf("failed to classify text: %w", err)
	}
	rows := make([]*Category, 0, len(resp.GetCategories()))
	for _, cat := range resp.GetCategories() {
		rows = append(rows, &Category{Name: cat.GetName(), Confidence: cat.GetConfidence()})
	}
	return rows, nil
}
