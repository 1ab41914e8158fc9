// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package video

import (
	"context"
	"fmt"
	"io"
	"time"

	vi "cloud.google.com/go/videointelligence/apiv1"
	"cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
)

// TranscriptionLanguage is the language speech is transcribed in.
const TranscriptionLanguage = "en-US"

// AnalyzeLabels prints the video level and shot level labels.
func AnalyzeLabels(ctx context.Context, w io.Writer, c *vi.Client, input string, timeout time.Duration) error {
	req, err := request(input, videointelligencepb.Feature_LABEL_DETECTION)
	if err != nil {
		return err
	}
	res, err := annotate(ctx, w, c, req, timeout)
	if err != nil {
		return err
	}

	printLabels(w, "Video", "Segment", res.GetSegmentLabelAnnotations())
	fmt.Fprintln(w)
	printLabels(w, "Shot", "Shot", res.GetShotLabelAnnotations())
	fmt.Fprintln(w)
	return nil
}

func printLabels(w io.Writer, level, span string, labels []*videointelligencepb.LabelAnnotation) {
	for _, l := range labels {
		fmt.Fprintf(w, "%s label description: %s\n", level, l.GetEntity().GetDescription())
		for _, cat := range l.GetCategoryEntities() {
			fmt.Fprintf(w, "  Category: %s\n", cat.GetDescription())
		}
		for _, s := range l.GetSegments() {
			fmt.Fprintf(w, "  %s: %s to %s\n", span,
				seconds(s.GetSegment().GetStartTimeOffset()), seconds(s.GetSegment().GetEndTimeOffset()))
			fmt.Fprintf(w, "  Confidence: %f\n", s.GetConfidence())
		}
	}
}

// AnalyzeExplicitContent prints the pornography likelihood of each sampled
// frame.
func AnalyzeExplicitContent(ctx context.Context, w io.Writer, c *vi.Client, input string, timeout time.Duration) error {
	req, err := request(input, videointelligencepb.Feature_EXPLICIT_CONTENT_DETECTION)
	if err != nil {
		return err
	}
	res, err := annotate(ctx, w, c, req, timeout)
	if err != nil {
		return err
	}

	for _, f := range res.GetExplicitAnnotation().GetFrames() {
		fmt.Fprintf(w, "At %s: %s\n", seconds(f.GetTimeOffset()), f.GetPornographyLikelihood())
	}
	return nil
}

// AnalyzeShots prints each shot change.
func AnalyzeShots(ctx context.Context, w io.Writer, c *vi.Client, input string, timeout time.Duration) error {
	req, err := request(input, videointelligencepb.Feature_SHOT_CHANGE_DETECTION)
	if err != nil {
		return err
	}
	res, err := annotate(ctx, w, c, req, timeout)
	if err != nil {
		return err
	}

	for _, s := range res.GetShotAnnotations() {
		fmt.Fprintf(w, "Shot: %s to %s\n", seconds(s.GetStartTimeOffset()), seconds(s.GetEndTimeOffset()))
	}
	return nil
}

// AnalyzeTranscription prints every transcription alternative with its word
// timings.
func AnalyzeTranscription(ctx context.Context, w io.Writer, c *vi.Client, input string, timeout time.Duration) error {
	req, err := request(input, videointelligencepb.Feature_SPEECH_TRANSCRIPTION)
	if err != nil {
		return err
	}
	req.VideoContext = &videointelligencepb.VideoContext{
		SpeechTranscriptionConfig: &videointelligencepb.SpeechTranscriptionConfig{
			LanguageCode:               TranscriptionLanguage,
			EnableAutomaticPunctuation: true,
		},
	}
	res, err := annotate(ctx, w, c, req, timeout)
	if err != nil {
		return err
	}

	for _, t := range res.GetSpeechTranscriptions() {
		for _, alt := range t.GetAlternatives() {
			fmt.Fprintln(w, "Alternative level information")
			fmt.Fprintf(w, "Transcript: %s\n", alt.GetTranscript())
			fmt.Fprintf(w, "Confidence: %v\n", alt.GetConfidence())
			fmt.Fprintln(w, "Word level information:")
			for _, word := range alt.GetWords() {
				fmt.Fprintf(w, "%s - %s: %s\n", seconds(word.GetStartTime()), seconds(word.GetEndTime()), word.GetWord())
			}
		}
	}
	return nil
}

// AnalyzeTextDetection prints the text found in the video with where it
// first appears.
func AnalyzeTextDetection(ctx context.Context, w io.Writer, c *vi.Client, input string, timeout time.Duration) error {
	req, err := request(input, videointelligencepb.Feature_TEXT_DETECTION)
	if err != nil {
		return err
	}
	res, err := annotate(ctx, w, c, req, timeout)
	if err != nil {
		return err
	}

	for _, t := range res.GetTextAnnotations() {
		fmt.Fprintf(w, "Text: %s\n", t.GetText())
		segments := t.GetSegments()
		if len(segments) == 0 {
			continue
		}
		s := segments[0]
		fmt.Fprintf(w, "  Segment: %s to %s\n",
			seconds(s.GetSegment().GetStartTimeOffset()), seconds(s.GetSegment().GetEndTimeOffset()))
		fmt.Fprintf(w, "  Confidence: %f\n", s.GetConfidence())
		if frames := s.GetFrames(); len(frames) > 0 {
			f := frames[0]
			fmt.Fprintf(w, "  Time offset of first frame: %s\n", seconds(f.GetTimeOffset()))
			for _, v := range f.GetRotatedBoundingBox().GetVertices() {
				fmt.Fprintf(w, "    Vertex x: %f, y: %f\n", v.GetX(), v.GetY())
			}
		}
	}
	return nil
}

// AnalyzeObjectTracking prints each tracked object with its first bounding
// box.
func AnalyzeObjectTracking(ctx context.Context, w io.Writer, c *vi.Client, input string, timeout time.Duration) error {
	req, err := request(input, videointelligencepb.Feature_OBJECT_TRACKING)
	if err != nil {
		return err
	}
	res, err := annotate(ctx, w, c, req, timeout)
	if err != nil {
		return err
	}

	for _, o := range res.GetObjectAnnotations() {
		fmt.Fprintf(w, "Entity description: %s\n", o.GetEntity().GetDescription())
		if id := o.GetEntity().GetEntityId(); id != "" {
			fmt.Fprintf(w, "Entity id: %s\n", id)
		}
		if s := o.GetSegment(); s != nil {
			fmt.Fprintf(w, "Segment: %s to %s\n", seconds(s.GetStartTimeOffset()), seconds(s.GetEndTimeOffset()))
		}
		fmt.Fprintf(w, "Confidence: %f\n", o.GetConfidence())
		if frames := o.GetFrames(); len(frames) > 0 {
			f := frames[0]
			box := f.GetNormalizedBoundingBox()
			fmt.Fprintf(w, "Time offset of first frame: %s\n", seconds(f.GetTimeOffset()))
			fmt.Fprintf(w, "Bounding box position: left %f, top %f, right %f, bottom %f\n",
				box.GetLeft(), box.GetTop(), box.GetRight(), box.GetBottom())
		}
		fmt.Fprintln(w)
	}
	return nil
}
