// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package channel_websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	internal_audio "github.com/confa-space/voice-agent/internal/audio"
	internal_control "github.com/confa-space/voice-agent/internal/control"
	internal_type "github.com/confa-space/voice-agent/internal/type"
	"github.com/confa-space/voice-agent/pkg/commons"
)

// TopicCommitUtterance is the streamer-local boundary marker: the client
// sends it after a run of binary PCM frames to close one utterance. It never
// reaches the session's dispatcher.
const TopicCommitUtterance = "input.commit"

// Outbound notice topics for the client.
const (
	topicPlaybackInterrupt = "playback.interrupt"
	topicPlaybackTarget    = "playback.target"
)

const (
	dataChannelSize      = 500
	utteranceChannelSize = 8
)

// Streamer is the development Transport: one websocket carrying JSON control
// payloads (text messages, forwarded in arrival order) and raw PCM16 audio
// (binary messages, accumulated until the client commits an utterance).
// Synthesized frames go back as binary messages.
type Streamer struct {
	logger     commons.Logger
	conn       *websocket.Conn
	sampleRate int
	channels   int

	writeMu sync.Mutex

	dataCh chan []byte
	uttCh  chan internal_type.Utterance

	captureMu  sync.Mutex
	captureBuf bytes.Buffer

	closeOnce sync.Once
}

func NewStreamer(logger commons.Logger, conn *websocket.Conn, sampleRate, channels int) *Streamer {
	if sampleRate <= 0 {
		sampleRate = internal_audio.DefaultSampleRate
	}
	if channels <= 0 {
		channels = internal_audio.DefaultChannels
	}
	s := &Streamer{
		logger:     logger,
		conn:       conn,
		sampleRate: sampleRate,
		channels:   channels,
		dataCh:     make(chan []byte, dataChannelSize),
		uttCh:      make(chan internal_type.Utterance, utteranceChannelSize),
	}
	go s.readLoop()
	return s
}

// readLoop funnels everything from the socket into the ordered channels.
// Exits (and closes both channels) on the first read error.
func (s *Streamer) readLoop() {
	defer s.shutdown()
	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Infof("websocket: read loop ended: %v", err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.captureMu.Lock()
			s.captureBuf.Write(payload)
			s.captureMu.Unlock()
		case websocket.TextMessage:
			if msg := internal_control.Decode(payload); msg != nil && msg.Topic == TopicCommitUtterance {
				s.commitUtterance()
				continue
			}
			s.pushData(payload)
		}
	}
}

// commitUtterance seals the captured PCM into one utterance. An empty
// capture buffer is a no-op.
func (s *Streamer) commitUtterance() {
	s.captureMu.Lock()
	if s.captureBuf.Len() == 0 {
		s.captureMu.Unlock()
		return
	}
	raw := make([]byte, s.captureBuf.Len())
	s.captureBuf.Read(raw)
	s.captureBuf.Reset()
	s.captureMu.Unlock()

	utt := internal_type.Utterance{
		Frames: []internal_audio.Frame{{
			SampleRate: s.sampleRate,
			Channels:   s.channels,
			Samples:    internal_audio.PCM16FromBytes(raw),
		}},
	}
	select {
	case s.uttCh <- utt:
	default:
		s.logger.Warnf("websocket: utterance channel full, dropping utterance")
	}
}

// pushData forwards a control payload without blocking the read loop.
func (s *Streamer) pushData(payload []byte) {
	select {
	case s.dataCh <- payload:
	default:
		s.logger.Warnf("websocket: data channel full, dropping payload")
	}
}

func (s *Streamer) shutdown() {
	s.closeOnce.Do(func() {
		close(s.dataCh)
		close(s.uttCh)
	})
}

// DataMessages implements internal_type.Transport.
func (s *Streamer) DataMessages() <-chan []byte {
	return s.dataCh
}

// Utterances implements internal_type.Transport.
func (s *Streamer) Utterances() <-chan internal_type.Utterance {
	return s.uttCh
}

// PlayFrame implements internal_type.Transport.
func (s *Streamer) PlayFrame(ctx context.Context, frame internal_audio.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, internal_audio.BytesFromPCM16(frame.Samples)); err != nil {
		return fmt.Errorf("websocket: writing audio frame: %w", err)
	}
	return nil
}

// InterruptPlayback implements internal_type.Transport. The streamer writes
// audio through, so interruption is a notice for the client's jitter buffer.
func (s *Streamer) InterruptPlayback(ctx context.Context) error {
	return s.sendNotice(ctx, topicPlaybackInterrupt, nil)
}

// SetTarget implements internal_type.Transport.
func (s *Streamer) SetTarget(ctx context.Context, participant string) error {
	return s.sendNotice(ctx, topicPlaybackTarget, participant)
}

func (s *Streamer) sendNotice(ctx context.Context, topic string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(internal_control.Message{Topic: topic, Value: value})
	if err != nil {
		return fmt.Errorf("websocket: encoding %s notice: %w", topic, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("websocket: writing %s notice: %w", topic, err)
	}
	return nil
}

// Close implements internal_type.Transport. Sends a close frame, then tears
// the socket down; the read loop notices and closes the channels.
func (s *Streamer) Close(ctx context.Context) error {
	s.writeMu.Lock()
	err := s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Warnf("websocket: close frame failed: %v", err)
	}
	return s.conn.Close()
}
