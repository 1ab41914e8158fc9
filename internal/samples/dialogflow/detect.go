// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dialogflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	df "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
)

// audioChunkSize is the size of each streamed audio request.
const audioChunkSize = 4096

func audioConfig(language string) *dialogflowpb.InputAudioConfig {
	return &dialogflowpb.InputAudioConfig{
		AudioEncoding:   dialogflowpb.AudioEncoding_AUDIO_ENCODING_LINEAR_16,
		SampleRateHertz: 16000,
		LanguageCode:    language,
	}
}

func printQueryResult(w io.Writer, r *dialogflowpb.QueryResult) {
	fmt.Fprintln(w, strings.Repeat("=", 20))
	fmt.Fprintf(w, "Query text: %s\n", r.GetQueryText())
	fmt.Fprintf(w, "Detected intent: %s (confidence: %f)\n",
		r.GetIntent().GetDisplayName(), r.GetIntentDetectionConfidence())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fulfilment text: %s\n", r.GetFulfillmentText())
}

// DetectIntentTexts sends each text to the session in turn. Reusing a
// session continues the conversation.
func DetectIntentTexts(ctx context.Context, w io.Writer, c *df.SessionsClient, project, session, language string, texts []string) error {
	name := sessionPath(project, session)
	fmt.Fprintf(w, "Session path: %s\n", name)

	for _, text := range texts {
		resp, err := c.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
			Session: name,
			QueryInput: &dialogflowpb.QueryInput{
				Input: &dialogflowpb.QueryInput_Text{
					Text: &dialogflowpb.TextInput{Text: text, LanguageCode: language},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to detect intent of %q: %w", text, err)
		}
		printQueryResult(w, resp.GetQueryResult())
	}
	return nil
}

// DetectIntentAudio sends a LINEAR16 16kHz audio file in one request.
func DetectIntentAudio(ctx context.Context, w io.Writer, c *df.SessionsClient, project, session, language, path string) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	name := sessionPath(project, session)
	fmt.Fprintf(w, "Session path: %s\n", name)

	resp, err := c.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session: name,
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_AudioConfig{AudioConfig: audioConfig(language)},
		},
		InputAudio: audio,
	})
	if err != nil {
		return fmt.Errorf("failed to detect intent: %w", err)
	}
	printQueryResult(w, resp.GetQueryResult())
	return nil
}

// DetectIntentStream streams an audio file in small chunks and prints the
// intermediate transcripts before the final result. The first request only
// carries the configuration.
func DetectIntentStream(ctx context.Context, w io.Writer, c *df.SessionsClient, project, session, language, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	name := sessionPath(project, session)
	fmt.Fprintf(w, "Session path: %s\n", name)

	stream, err := c.StreamingDetectIntent(ctx)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	err = stream.Send(&dialogflowpb.StreamingDetectIntentRequest{
		Session: name,
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_AudioConfig{AudioConfig: audioConfig(language)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send config: %w", err)
	}

	buf := make([]byte, audioChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := stream.Send(&dialogflowpb.StreamingDetectIntentRequest{InputAudio: chunk}); err != nil {
				return fmt.Errorf("failed to send audio: %w", err)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 20))
	var last *dialogflowpb.StreamingDetectIntentResponse
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to receive: %w", err)
		}
		if rr := resp.GetRecognitionResult(); rr != nil {
			fmt.Fprintf(w, "Intermediate transcript: %s\n", rr.GetTranscript())
		}
		last = resp
	}

	if last != nil {
		printQueryResult(w, last.GetQueryResult())
	}
	return nil
}
