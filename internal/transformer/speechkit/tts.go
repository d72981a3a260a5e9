// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer_speechkit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	internal_audio "github.com/confa-space/voice-agent/internal/audio"
	internal_transformer "github.com/confa-space/voice-agent/internal/transformer"
	"github.com/confa-space/voice-agent/pkg/commons"
	"github.com/confa-space/voice-agent/pkg/utils"
)

const ttsSynthesisPath = "/tts/v3/utteranceSynthesis"

// synthesisLine is one newline-delimited JSON line of the utteranceSynthesis
// response. A line may carry a text-progress notice, an audio payload, both
// or neither.
type synthesisLine struct {
	Result struct {
		TextChunk struct {
			Text string `json:"text"`
		} `json:"textChunk"`
		AudioChunk struct {
			Data string `json:"data"`
		} `json:"audioChunk"`
	} `json:"result"`
}

type speechKitTextToSpeech struct {
	*speechKitOption
	logger commons.Logger
	client *resty.Client
}

// NewSpeechKitTextToSpeech wraps the chunked utteranceSynthesis endpoint
// behind the TextToSpeech contract. Each Synthesize call issues one request
// and replays the reassembled audio as a fixed-duration frame sequence.
func NewSpeechKitTextToSpeech(logger commons.Logger, credential Credential, opts utils.Option) (internal_transformer.TextToSpeech, error) {
	option, err := NewSpeechKitOption(logger, credential, opts)
	if err != nil {
		return nil, err
	}
	return &speechKitTextToSpeech{
		speechKitOption: option,
		logger:          logger,
		client:          resty.New(),
	}, nil
}

// Name implements internal_transformer.TextToSpeech.
func (tt *speechKitTextToSpeech) Name() string {
	return "speechkit-tts"
}

// Synthesize starts one synthesis request and returns its chunk stream. The
// stream is always closed, on success and on failure alike.
func (tt *speechKitTextToSpeech) Synthesize(ctx context.Context, text string) *internal_transformer.SynthesisStream {
	stream := internal_transformer.NewSynthesisStream()
	go tt.run(ctx, text, stream)
	return stream
}

func (tt *speechKitTextToSpeech) run(ctx context.Context, text string, stream *internal_transformer.SynthesisStream) {
	requestID := uuid.NewString()

	pcm, err := tt.synthesizeToPCM(ctx, text)
	if err != nil {
		tt.logger.Errorf("speechkit-tts: synthesis failed: %v", err)
		stream.Close(err)
		return
	}

	bstream := internal_audio.NewByteStream(tt.synthesisRate(), numChannels, 0)
	frames := bstream.Write(pcm)
	frames = append(frames, bstream.Flush()...)

	for i, frame := range frames {
		chunk := internal_transformer.SynthesisChunk{
			RequestID: requestID,
			SegmentID: requestID,
			Frame:     frame,
			Final:     i == len(frames)-1,
		}
		if err := stream.Put(ctx, chunk); err != nil {
			stream.Close(err)
			return
		}
	}
	stream.Close(nil)
}

// synthesizeToPCM issues the POST and reassembles every audio payload, in
// line order, into one contiguous PCM buffer. Unparsable lines are skipped
// with a warning; a response with no audio at all is a hard failure.
func (tt *speechKitTextToSpeech) synthesizeToPCM(ctx context.Context, text string) ([]byte, error) {
	req := tt.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", tt.AuthorizationHeader()).
		SetBody(tt.synthesisRequest(text))
	if tt.credential.IAMToken != "" && tt.credential.FolderID != "" {
		req.SetHeader("x-folder-id", tt.credential.FolderID)
	}

	resp, err := req.Post(tt.ttsBaseURL + ttsSynthesisPath)
	if err != nil {
		return nil, fmt.Errorf("speechkit-tts: request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &internal_transformer.BackendError{
			Provider: "speechkit-tts",
			Status:   resp.StatusCode(),
			Message:  string(resp.Body()),
		}
	}

	var pcm []byte
	audioLines := 0
	for _, line := range strings.Split(string(resp.Body()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var parsed synthesisLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			tt.logger.Warnf("speechkit-tts: skipping unparsable response line: %v", err)
			continue
		}

		if txt := parsed.Result.TextChunk.Text; txt != "" {
			tt.logger.Debugf("speechkit-tts: text chunk: %s", txt)
		}

		if b64 := parsed.Result.AudioChunk.Data; b64 != "" {
			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				tt.logger.Warnf("speechkit-tts: skipping corrupt audio chunk: %v", err)
				continue
			}
			pcm = append(pcm, raw...)
			audioLines++
		}
	}

	if audioLines == 0 {
		return nil, internal_transformer.ErrNoAudioData
	}
	return pcm, nil
}

// Close implements internal_transformer.TextToSpeech.
func (tt *speechKitTextToSpeech) Close(ctx context.Context) error {
	return nil
}
