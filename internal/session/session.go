// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/confa-space/voice-agent/config"
	internal_control "github.com/confa-space/voice-agent/internal/control"
	internal_gate "github.com/confa-space/voice-agent/internal/gate"
	internal_transformer "github.com/confa-space/voice-agent/internal/transformer"
	internal_type "github.com/confa-space/voice-agent/internal/type"
	"github.com/confa-space/voice-agent/pkg/commons"
)

const (
	greetingInstruction = "Greet the user and introduce yourself."
	closeTimeout        = 5 * time.Second
)

// ErrLeaveRequested reports that the session ended because the room asked
// the agent to leave (control.leave). The process should exit after an
// orderly close.
var ErrLeaveRequested = errors.New("session: leave requested")

var errTransportClosed = errors.New("session: transport closed")

// Session runs one agent in one room: a single dispatch loop over the
// inbound data-channel queue, a turn loop over completed utterances, and the
// mute gate both consult. Control handlers run synchronously on the dispatch
// loop, so mute transitions are never interleaved mid-message.
type Session struct {
	id     string
	logger commons.Logger

	transport  internal_type.Transport
	stt        internal_transformer.SpeechToText
	tts        internal_transformer.TextToSpeech
	generator  internal_type.TurnGenerator
	gate       *internal_gate.TurnGate
	dispatcher *internal_control.Dispatcher
	role       config.RoleConfig

	leaveOnce sync.Once
	leaveCh   chan struct{}
}

func NewSession(
	logger commons.Logger,
	transport internal_type.Transport,
	stt internal_transformer.SpeechToText,
	tts internal_transformer.TextToSpeech,
	generator internal_type.TurnGenerator,
	role config.RoleConfig,
) *Session {
	return &Session{
		id:         uuid.NewString(),
		logger:     logger,
		transport:  transport,
		stt:        stt,
		tts:        tts,
		generator:  generator,
		gate:       internal_gate.NewTurnGate(logger, role.WakeWord),
		dispatcher: internal_control.NewDispatcher(logger),
		role:       role,
	}
}

// Gate exposes the session's turn gate (read-mostly: tests and diagnostics).
func (s *Session) Gate() *internal_gate.TurnGate {
	return s.gate
}

// Run drives the session until the transport disconnects, the context ends
// or the room requests leave. The transport is closed on every exit path.
// Returns ErrLeaveRequested when control.leave ended the session.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.leaveCh = make(chan struct{})
	s.registerHandlers(ctx)

	s.logger.Infof("session %s: started as role %q", s.id, s.role.Role)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.dispatchLoop(gctx) })
	g.Go(func() error { return s.turnLoop(gctx) })
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return gctx.Err()
		case <-s.leaveCh:
			return ErrLeaveRequested
		}
	})
	g.Go(func() error {
		s.greet(gctx)
		return nil
	})

	err := g.Wait()
	cancel()
	s.closeTransport()

	switch {
	case errors.Is(err, ErrLeaveRequested):
		return ErrLeaveRequested
	case errors.Is(err, errTransportClosed), errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

func (s *Session) registerHandlers(ctx context.Context) {
	s.dispatcher.Handle(internal_control.TopicMuted, func(value interface{}) {
		muted, ok := value.(bool)
		if !ok {
			s.logger.Warnf("session: control.muted with non-boolean value %v", value)
			return
		}
		if s.gate.SetMuted(muted) && muted {
			s.interruptPlayback(ctx)
		}
	})
	s.dispatcher.Handle(internal_control.TopicStopTTS, func(interface{}) {
		s.interruptPlayback(ctx)
	})
	s.dispatcher.Handle(internal_control.TopicLeave, func(interface{}) {
		s.logger.Infof("session %s: leave requested by room", s.id)
		s.leaveOnce.Do(func() { close(s.leaveCh) })
	})
	s.dispatcher.Handle(internal_control.TopicSetTarget, func(value interface{}) {
		target := fmt.Sprint(value)
		if err := s.transport.SetTarget(ctx, target); err != nil {
			s.logger.Warnf("session: set target %q failed: %v", target, err)
		}
	})
}

// dispatchLoop consumes the inbound data-channel queue in delivery order.
// Handlers run inline, so no two control messages interleave.
func (s *Session) dispatchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-s.transport.DataMessages():
			if !ok {
				return errTransportClosed
			}
			s.dispatcher.Dispatch(payload)
		}
	}
}

// turnLoop processes completed utterances sequentially: only one turn is in
// flight at a time.
func (s *Session) turnLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case utt, ok := <-s.transport.Utterances():
			if !ok {
				return errTransportClosed
			}
			s.handleUtterance(ctx, utt)
		}
	}
}

// handleUtterance runs one turn end to end: recognize, gate, generate,
// speak. Each stage's failure drops only this turn.
func (s *Session) handleUtterance(ctx context.Context, utt internal_type.Utterance) {
	result, err := s.stt.Recognize(ctx, utt.Frames)
	if err != nil {
		s.logger.Errorf("session: recognition failed, dropping utterance: %v", err)
		return
	}
	if strings.TrimSpace(result.Text) == "" {
		s.logger.Debugf("session: empty transcript, dropping utterance")
		return
	}

	if s.gate.Admit(result.Text) == internal_gate.DecisionSuppress {
		s.logger.Debugf("session: utterance suppressed while muted")
		return
	}

	reply, err := s.generator.Generate(ctx, result.Text)
	if err != nil {
		s.logger.Errorf("session: turn generation failed: %v", err)
		return
	}
	s.speak(ctx, reply)
}

// greet proactively asks turn generation for an opening line, unless the
// session is muted at that moment.
func (s *Session) greet(ctx context.Context) {
	if s.gate.Muted() {
		s.logger.Infof("session: muted at start, skipping greeting")
		return
	}
	greeting, err := s.generator.Generate(ctx, greetingInstruction)
	if err != nil {
		s.logger.Errorf("session: greeting generation failed: %v", err)
		return
	}
	s.speak(ctx, greeting)
}

// speak synthesizes text and plays the resulting frames in order. The
// stream is always drained so the producer never blocks; a playback failure
// mutes the rest of this one reply only.
func (s *Session) speak(ctx context.Context, text string) {
	stream := s.tts.Synthesize(ctx, text)

	var playErr error
	for chunk := range stream.Chunks() {
		if playErr != nil {
			continue
		}
		if err := s.transport.PlayFrame(ctx, chunk.Frame); err != nil {
			s.logger.Warnf("session: playback failed, dropping rest of reply: %v", err)
			playErr = err
		}
	}
	if err := stream.Err(); err != nil {
		s.logger.Errorf("session: synthesis failed, reply aborted: %v", err)
	}
}

// interruptPlayback asks the transport to drop queued audio. Best-effort:
// failures are logged, never escalated, and an in-flight back-end call is
// not cancelled — its result simply arrives too late to matter.
func (s *Session) interruptPlayback(ctx context.Context) {
	if err := s.transport.InterruptPlayback(ctx); err != nil {
		s.logger.Warnf("session: playback interrupt failed: %v", err)
	}
}

// closeTransport gives the transport a bounded chance to flush and release
// resources. Best-effort on every exit path.
func (s *Session) closeTransport() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.transport.Close(ctx); err != nil {
		s.logger.Warnf("session: transport close failed: %v", err)
	}
}
