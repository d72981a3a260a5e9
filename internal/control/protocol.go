// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_control

import (
	"encoding/json"

	"github.com/confa-space/voice-agent/pkg/commons"
)

// Recognized control topics. Unknown topics are ignored so future control
// surface additions stay backward compatible.
const (
	TopicMuted     = "control.muted"
	TopicStopTTS   = "control.stop_tts"
	TopicLeave     = "control.leave"
	TopicSetTarget = "control.set_target"
)

// Message is one decoded data-channel control payload. Topic selects the
// handler; Value is free-form and interpreted per topic. Messages are
// ephemeral — built per payload, discarded after dispatch.
type Message struct {
	Topic string      `json:"topic"`
	Value interface{} `json:"value"`
}

// Decode parses a data-channel payload as UTF-8 JSON. Any failure — invalid
// JSON, a non-object, a missing topic — yields nil, never an error: a bad
// payload means "nothing happened".
func Decode(payload []byte) *Message {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil
	}
	if msg.Topic == "" {
		return nil
	}
	return &msg
}

// Handler consumes the value of one control message.
type Handler func(value interface{})

// Dispatcher routes decoded messages to handlers by exact topic match. It
// holds no transport state; side effects live in the registered handlers.
type Dispatcher struct {
	logger   commons.Logger
	handlers map[string]Handler
}

func NewDispatcher(logger commons.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Handle registers h for topic, replacing any previous handler.
func (d *Dispatcher) Handle(topic string, h Handler) {
	d.handlers[topic] = h
}

// Dispatch decodes payload and runs the matching handler synchronously.
// Malformed payloads and unknown topics are no-ops.
func (d *Dispatcher) Dispatch(payload []byte) {
	msg := Decode(payload)
	if msg == nil {
		d.logger.Debugf("control: ignoring malformed payload (%d bytes)", len(payload))
		return
	}
	h, ok := d.handlers[msg.Topic]
	if !ok {
		d.logger.Debugf("control: no handler for topic %q", msg.Topic)
		return
	}
	h(msg.Value)
}
