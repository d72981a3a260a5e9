// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer

import (
	"context"

	internal_audio "github.com/confa-space/voice-agent/internal/audio"
)

// =============================================================================
// Speech transformer contracts
// =============================================================================

// RecognitionResult is the single outcome of one recognition call. The
// short-audio back-end returns no graded confidence and no word timing, so
// Confidence is 1.0 for non-empty text, 0 otherwise, and times are zero.
type RecognitionResult struct {
	Text       string
	Confidence float64
	Language   string
	StartTime  float64
	EndTime    float64
}

// SynthesisChunk is one timed slice of synthesized audio. All chunks of one
// request share RequestID/SegmentID; exactly one chunk in the sequence has
// Final set, and it is the last.
type SynthesisChunk struct {
	RequestID string
	SegmentID string
	Frame     internal_audio.Frame
	Final     bool
}

// SpeechToText wraps a non-streaming recognition back-end: one call, one
// result, no interim transcripts. Retry policy belongs to the caller.
type SpeechToText interface {
	Name() string
	Recognize(ctx context.Context, frames []internal_audio.Frame) (*RecognitionResult, error)
	Close(ctx context.Context) error
}

// TextToSpeech wraps a non-streaming synthesis back-end. Each Synthesize
// call issues a fresh request and returns a finite, non-restartable stream
// of chunks.
type TextToSpeech interface {
	Name() string
	Synthesize(ctx context.Context, text string) *SynthesisStream
	Close(ctx context.Context) error
}
