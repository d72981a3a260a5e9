// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_gate

import (
	"strings"
	"sync"

	"github.com/confa-space/voice-agent/pkg/commons"
)

// Decision is the admission verdict for one completed utterance.
// Suppression is routine control flow, not a failure, so it is a value here
// rather than an error.
type Decision int

const (
	// DecisionRespond lets the utterance through to turn generation.
	DecisionRespond Decision = iota
	// DecisionSuppress drops the utterance: no reply is generated for it.
	DecisionSuppress
)

// TurnGate is the mute/listen state machine gating whether a completed user
// utterance reaches turn generation. It starts listening. While muted, only
// the configured wake word (case-insensitive substring) re-enables
// listening — and the utterance that carries it is itself suppressed.
//
// State is owned by one session and mutated under a mutex, so the component
// keeps its single-owner contract even on a multi-goroutine host.
type TurnGate struct {
	logger commons.Logger

	mu       sync.Mutex
	muted    bool
	wakeWord string // lower-cased; empty means no wake word configured
}

func NewTurnGate(logger commons.Logger, wakeWord string) *TurnGate {
	return &TurnGate{
		logger:   logger,
		wakeWord: strings.ToLower(wakeWord),
	}
}

// SetMuted applies a control.muted value and reports whether the state
// actually changed. Repeated identical values are idempotent no-ops.
func (g *TurnGate) SetMuted(muted bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.muted == muted {
		return false
	}
	g.muted = muted
	g.logger.Infof("gate: muted=%t", muted)
	return true
}

// Muted reports the current mute state.
func (g *TurnGate) Muted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// Admit evaluates one completed utterance. Listening passes it through
// unchanged. Muted suppresses it — and if the text contains the wake word
// the gate transitions back to listening, but the waking utterance is still
// suppressed: the wake word is not conversational content.
func (g *TurnGate) Admit(text string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.muted {
		return DecisionRespond
	}

	if g.wakeWord != "" && strings.Contains(strings.ToLower(text), g.wakeWord) {
		g.muted = false
		g.logger.Infof("gate: wake word detected, listening again")
	}
	return DecisionSuppress
}
