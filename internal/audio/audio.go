// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import "encoding/binary"

const (
	// BytesPerSample for LINEAR16 PCM.
	BytesPerSample = 2

	DefaultSampleRate = 16000
	DefaultChannels   = 1
)

// Frame is the canonical audio unit exchanged across the pipeline: an
// interleaved 16-bit PCM sample buffer with its format. Frames are value
// objects; producers hand ownership of Samples to the consumer.
type Frame struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Duration returns the frame length in seconds.
func (f Frame) Duration() float64 {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	return float64(len(f.Samples)) / float64(f.SampleRate*f.Channels)
}

// MergeFrames concatenates frames into one in arrival order. A single frame
// is returned as-is. Format is taken from the first frame.
func MergeFrames(frames []Frame) Frame {
	if len(frames) == 0 {
		return Frame{SampleRate: DefaultSampleRate, Channels: DefaultChannels}
	}
	if len(frames) == 1 {
		return frames[0]
	}

	total := 0
	for _, f := range frames {
		total += len(f.Samples)
	}
	merged := make([]int16, 0, total)
	for _, f := range frames {
		merged = append(merged, f.Samples...)
	}
	return Frame{
		SampleRate: frames[0].SampleRate,
		Channels:   frames[0].Channels,
		Samples:    merged,
	}
}

// PCM16FromFloat32 converts float32 samples to 16-bit PCM. Samples are
// clamped to [-1, 1] and scaled by 0x8000 for negative values and 0x7FFF for
// non-negative ones, matching the asymmetric two's-complement range.
func PCM16FromFloat32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7FFF)
		}
	}
	return out
}

// PCM16FromBytes reinterprets raw little-endian bytes as 16-bit PCM samples.
// A trailing odd byte is dropped.
func PCM16FromBytes(data []byte) []int16 {
	out := make([]int16, len(data)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
	}
	return out
}

// BytesFromPCM16 serializes samples as raw little-endian 16-bit PCM.
func BytesFromPCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(s))
	}
	return out
}
