// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer

import (
	"context"
	"sync"
)

const streamBufferSize = 32

// SynthesisStream delivers the chunk sequence of one synthesis request. The
// producer pushes with Put and finishes with Close; the consumer ranges over
// Chunks and checks Err once the channel is closed. Close is always called,
// success or failure, so a consumer never dangles.
type SynthesisStream struct {
	ch chan SynthesisChunk

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func NewSynthesisStream() *SynthesisStream {
	return &SynthesisStream{
		ch: make(chan SynthesisChunk, streamBufferSize),
	}
}

// Chunks returns the ordered chunk sequence. The channel is closed when the
// request completes or fails.
func (s *SynthesisStream) Chunks() <-chan SynthesisChunk {
	return s.ch
}

// Err reports the failure that terminated the stream, if any. Valid once
// Chunks is closed.
func (s *SynthesisStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Put delivers one chunk to the consumer, giving up if ctx ends first.
func (s *SynthesisStream) Put(ctx context.Context, chunk SynthesisChunk) error {
	select {
	case s.ch <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the stream. The first call wins; later calls are no-ops.
func (s *SynthesisStream) Close(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.ch)
	})
}
