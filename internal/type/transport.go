// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"context"

	internal_audio "github.com/confa-space/voice-agent/internal/audio"
)

// Utterance is one completed unit of captured user speech, segmented by the
// transport's voice-activity detection before it reaches this process.
type Utterance struct {
	Frames []internal_audio.Frame
}

// Transport is the realtime-room collaborator: data-channel messaging,
// audio playback and session-level controls. Implementations must deliver
// DataMessages in the order the room produced them.
type Transport interface {
	// DataMessages is the ordered inbound data-channel queue. The channel
	// closes when the transport disconnects.
	DataMessages() <-chan []byte

	// Utterances delivers completed user utterances. The channel closes when
	// the transport disconnects.
	Utterances() <-chan Utterance

	// PlayFrame queues one synthesized frame for playback.
	PlayFrame(ctx context.Context, frame internal_audio.Frame) error

	// InterruptPlayback discards any queued playback audio.
	InterruptPlayback(ctx context.Context) error

	// SetTarget redirects output focus to the named participant.
	SetTarget(ctx context.Context, participant string) error

	// Close tears the transport down, flushing what it can first.
	Close(ctx context.Context) error
}

// TurnGenerator produces the agent's reply text for an admitted utterance
// (or a proactive instruction such as the opening greeting). The model
// integration behind it is external to this process.
type TurnGenerator interface {
	Generate(ctx context.Context, input string) (string, error)
}
