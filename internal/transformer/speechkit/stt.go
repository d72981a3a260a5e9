// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer_speechkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	internal_audio "github.com/confa-space/voice-agent/internal/audio"
	internal_transformer "github.com/confa-space/voice-agent/internal/transformer"
	"github.com/confa-space/voice-agent/pkg/commons"
	"github.com/confa-space/voice-agent/pkg/utils"
)

const sttRecognizePath = "/speech/v1/stt:recognize"

// recognizeResponse is the short-audio API result envelope.
type recognizeResponse struct {
	Result       string `json:"result"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type speechKitSpeechToText struct {
	*speechKitOption
	logger commons.Logger
	client *resty.Client
}

// NewSpeechKitSpeechToText wraps the non-streaming stt:recognize endpoint
// behind the SpeechToText contract: one buffered utterance in, one final
// result out. Missing credentials or folder id fail here, before any call.
func NewSpeechKitSpeechToText(logger commons.Logger, credential Credential, opts utils.Option) (internal_transformer.SpeechToText, error) {
	option, err := NewSpeechKitOption(logger, credential, opts)
	if err != nil {
		return nil, err
	}
	if credential.FolderID == "" {
		return nil, fmt.Errorf("speechkit-stt: folder id is required")
	}
	return &speechKitSpeechToText{
		speechKitOption: option,
		logger:          logger,
		client:          resty.New(),
	}, nil
}

// Name implements internal_transformer.SpeechToText.
func (st *speechKitSpeechToText) Name() string {
	return "speechkit-short-audio-stt"
}

// Recognize merges the captured frames in arrival order, serializes them as
// raw little-endian 16-bit PCM and issues a single recognition call. No
// interim results, no automatic retries.
func (st *speechKitSpeechToText) Recognize(ctx context.Context, frames []internal_audio.Frame) (*internal_transformer.RecognitionResult, error) {
	merged := internal_audio.MergeFrames(frames)
	body := internal_audio.BytesFromPCM16(merged.Samples)
	sampleRate := st.recognitionRate(merged.SampleRate)

	st.logger.Debugf("speechkit-stt: recognize samples=%d rate=%d", len(merged.Samples), sampleRate)

	resp, err := st.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"folderId":        st.credential.FolderID,
			"lang":            st.language,
			"topic":           st.topic,
			"format":          "lpcm",
			"sampleRateHertz": strconv.Itoa(sampleRate),
		}).
		SetHeader("Authorization", st.AuthorizationHeader()).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(body).
		Post(st.sttBaseURL + sttRecognizePath)
	if err != nil {
		return nil, fmt.Errorf("speechkit-stt: request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &internal_transformer.BackendError{
			Provider: "speechkit-stt",
			Status:   resp.StatusCode(),
			Message:  string(resp.Body()),
		}
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("speechkit-stt: %w: %v", internal_transformer.ErrMalformedResponse, err)
	}
	if parsed.ErrorCode != "" {
		return nil, &internal_transformer.BackendError{
			Provider: "speechkit-stt",
			Status:   resp.StatusCode(),
			Code:     parsed.ErrorCode,
			Message:  parsed.ErrorMessage,
		}
	}

	confidence := 0.0
	if parsed.Result != "" {
		confidence = 1.0
	}
	// This back-end reports neither graded confidence nor word timing.
	return &internal_transformer.RecognitionResult{
		Text:       parsed.Result,
		Confidence: confidence,
		Language:   st.language,
		StartTime:  0,
		EndTime:    0,
	}, nil
}

// Close implements internal_transformer.SpeechToText.
func (st *speechKitSpeechToText) Close(ctx context.Context) error {
	return nil
}
