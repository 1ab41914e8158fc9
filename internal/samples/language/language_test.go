// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package language

import (
	"bytes"
	"context"
	"testing"

	language "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/staranto/gcpctl/internal/gcptest"
)

// fakeLanguage answers every request with the same canned analysis and
// remembers the last document it saw.
type fakeLanguage struct {
	languagepb.UnimplementedLanguageServiceServer

	doc      *languagepb.Document
	features *languagepb.AnnotateTextRequest_Features
}

var (
	sanJose = &languagepb.Entity{
		Name:     "San Jose",
		Type:     languagepb.Entity_LOCATION,
		Salience: 0.5,
		Metadata: map[string]string{
			"wikipedia_url": "https://en.wikipedia.org/wiki/San_Jose,_California",
			"mid":           "/m/0f04v",
		},
		Mentions: []*languagepb.EntityMention{{
			Text: &languagepb.TextSpan{Content: "San Jose", BeginOffset: 23},
			Type: languagepb.EntityMention_PROPER,
		}},
		Sentiment: &languagepb.Sentiment{Magnitude: 0.25, Score: -0.5},
	}
	sentiment = &languagepb.Sentiment{Magnitude: 0.5, Score: 0.25}
	sentences = []*languagepb.Sentence{{
		Text:      &languagepb.TextSpan{Content: "Do you know the way to San Jose?"},
		Sentiment: sentiment,
	}}
	tokens = []*languagepb.Token{
		{Text: &languagepb.TextSpan{Content: "way"}, PartOfSpeech: &languagepb.PartOfSpeech{Tag: languagepb.PartOfSpeech_NOUN}},
		{Text: &languagepb.TextSpan{Content: "know"}, PartOfSpeech: &languagepb.PartOfSpeech{Tag: languagepb.PartOfSpeech_VERB}},
	}
)

func (f *fakeLanguage) AnnotateText(_ context.Context, req *languagepb.AnnotateTextRequest) (*languagepb.AnnotateTextResponse, error) {
	f.doc, f.features = req.GetDocument(), req.GetFeatures()
	return &languagepb.AnnotateTextResponse{
		Entities:          []*languagepb.Entity{sanJose},
		DocumentSentiment: sentiment,
		Sentences:         sentences,
		Tokens:            tokens,
	}, nil
}

func (f *fakeLanguage) AnalyzeEntities(_ context.Context, req *languagepb.AnalyzeEntitiesRequest) (*languagepb.AnalyzeEntitiesResponse, error) {
	f.doc = req.GetDocument()
	return &languagepb.AnalyzeEntitiesResponse{Entities: []*languagepb.Entity{sanJose}}, nil
}

func (f *fakeLanguage) AnalyzeSentiment(_ context.Context, req *languagepb.AnalyzeSentimentRequest) (*languagepb.AnalyzeSentimentResponse, error) {
	f.doc = req.GetDocument()
	return &languagepb.AnalyzeSentimentResponse{DocumentSentiment: sentiment, Sentences: sentences}, nil
}

func (f *fakeLanguage) AnalyzeSyntax(_ context.Context, req *languagepb.AnalyzeSyntaxRequest) (*languagepb.AnalyzeSyntaxResponse, error) {
	f.doc = req.GetDocument()
	return &languagepb.AnalyzeSyntaxResponse{Tokens: tokens}, nil
}

func (f *fakeLanguage) AnalyzeEntitySentiment(_ context.Context, req *languagepb.AnalyzeEntitySentimentRequest) (*languagepb.AnalyzeEntitySentimentResponse, error) {
	f.doc = req.GetDocument()
	return &languagepb.AnalyzeEntitySentimentResponse{Entities: []*languagepb.Entity{sanJose}}, nil
}

func (f *fakeLanguage) ClassifyText(_ context.Context, req *languagepb.ClassifyTextRequest) (*languagepb.ClassifyTextResponse, error) {
	f.doc = req.GetDocument()
	if len(req.GetDocument().GetContent()) < 20 && req.GetDocument().GetGcsContentUri() == "" {
		return nil, status.Error(codes.InvalidArgument, "too few tokens")
	}
	return &languagepb.ClassifyTextResponse{Categories: []*languagepb.ClassificationCategory{
		{Name: "/Travel", Confidence: 0.75},
	}}, nil
}

func newClient(t *testing.T) (*language.Client, *fakeLanguage) {
	t.Helper()

	fake := &fakeLanguage{}
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		languagepb.RegisterLanguageServiceServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

func TestDocument(t *testing.T) {
	doc := Document("gs://bucket/text.txt")
	assert.Equal(t, "gs://bucket/text.txt", doc.GetGcsContentUri())
	assert.Empty(t, doc.GetContent())

	doc = Document("hello")
	assert.Equal(t, "hello", doc.GetContent())
	assert.Equal(t, languagepb.Document_PLAIN_TEXT, doc.GetType())
}

func TestAnalyze(t *testing.T) {
	c, fake := newClient(t)

	entity := "Name: San Jose\nType: LOCATION\nSalience: 0.5\n" +
		"Wikipedia URL: https://en.wikipedia.org/wiki/San_Jose,_California\n" +
		"Knowledge Graph MID: /m/0f04v\n"
	mentions := "Mentions:\n  Begin Offset: 23\n  Content: San Jose\n  Mention Type: PROPER\n"
	docSentiment := "Document Sentiment:\n  Magnitude: 0.5\n  Score: 0.25\n"
	sentence := "Sentence: Do you know the way to San Jose?\nSentence Sentiment:\n"
	syntax := "Token text: way\nToken part of speech: NOUN\n\nToken text: know\nToken part of speech: VERB\n"

	tests := []struct {
		name    string
		fn      func(context.Context, *bytes.Buffer, *language.Client, string) error
		want    []string
		notWant []string
	}{
		{
			name: "all",
			fn: func(ctx context.Context, b *bytes.Buffer, c *language.Client, s string) error {
				return AnalyzeAll(ctx, b, c, s)
			},
			want: []string{entity, mentions, docSentiment, sentence, syntax},
		},
		{
			name: "entities",
			fn: func(ctx context.Context, b *bytes.Buffer, c *language.Client, s string) error {
				return AnalyzeEntities(ctx, b, c, s)
			},
			want:    []string{entity, mentions},
			notWant: []string{"Document Sentiment", "Magnitude"},
		},
		{
			name: "sentiment",
			fn: func(ctx context.Context, b *bytes.Buffer, c *language.Client, s string) error {
				return AnalyzeSentiment(ctx, b, c, s)
			},
			want:    []string{docSentiment, sentence},
			notWant: []string{"Token text"},
		},
		{
			name: "syntax",
			fn: func(ctx context.Context, b *bytes.Buffer, c *language.Client, s string) error {
				return AnalyzeSyntax(ctx, b, c, s)
			},
			want:    []string{syntax},
			notWant: []string{"Name:"},
		},
		{
			name: "entity sentiment",
			fn: func(ctx context.Context, b *bytes.Buffer, c *language.Client, s string) error {
				return AnalyzeEntitySentiment(ctx, b, c, s)
			},
			want: []string{entity + "Magnitude: 0.25\nScore: -0.5\n" + mentions},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, tt.fn(context.Background(), &out, c, "gs://bucket/way.txt"))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out.String(), nw)
			}
			assert.Equal(t, "gs://bucket/way.txt", fake.doc.GetGcsContentUri())
		})
	}

	assert.True(t, fake.features.GetExtractEntities())
	assert.True(t, fake.features.GetExtractSyntax())
	assert.True(t, fake.features.GetExtractDocumentSentiment())
}

func TestClassifyText(t *testing.T) {
	c, _ := newClient(t)

	rows, err := ClassifyText(context.Background(), c, "The way to San Jose runs through the valley past many orchards.")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/Travel", rows[0].Name)
	assert.InDelta(t, 0.75, rows[0].Confidence, 1e-6)

	_, err = ClassifyText(context.Background(), c, "short")
	assert.ErrorContains(t, err, "failed to classify text")
}
