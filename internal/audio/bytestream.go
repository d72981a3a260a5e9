// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import "bytes"

// ByteStream re-chunks a raw PCM byte stream into fixed-size frames. Write
// slices off as many complete frames as the accumulated bytes allow and
// retains the remainder; Flush emits the remainder as one final partial
// frame. Frame size and channel count are fixed for the stream's lifetime.
type ByteStream struct {
	sampleRate int
	channels   int
	frameBytes int
	buf        bytes.Buffer
}

// NewByteStream creates a re-chunker producing frames of samplesPerChannel
// samples per channel. samplesPerChannel <= 0 selects 100ms frames
// (sampleRate / 10).
func NewByteStream(sampleRate, channels, samplesPerChannel int) *ByteStream {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	if samplesPerChannel <= 0 {
		samplesPerChannel = sampleRate / 10
	}
	return &ByteStream{
		sampleRate: sampleRate,
		channels:   channels,
		frameBytes: samplesPerChannel * channels * BytesPerSample,
	}
}

// Write appends data and returns every complete frame now available, in
// order. Bytes short of a full frame stay buffered for the next Write or
// Flush.
func (bs *ByteStream) Write(data []byte) []Frame {
	bs.buf.Write(data)

	var frames []Frame
	for bs.buf.Len() >= bs.frameBytes {
		chunk := make([]byte, bs.frameBytes)
		bs.buf.Read(chunk)
		frames = append(frames, Frame{
			SampleRate: bs.sampleRate,
			Channels:   bs.channels,
			Samples:    PCM16FromBytes(chunk),
		})
	}
	return frames
}

// Flush drains the buffered remainder as a single partial frame, or returns
// nothing if the buffer is empty.
func (bs *ByteStream) Flush() []Frame {
	if bs.buf.Len() == 0 {
		return nil
	}
	chunk := make([]byte, bs.buf.Len())
	bs.buf.Read(chunk)
	return []Frame{{
		SampleRate: bs.sampleRate,
		Channels:   bs.channels,
		Samples:    PCM16FromBytes(chunk),
	}}
}
