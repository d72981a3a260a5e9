// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer_speechkit

import (
	"fmt"
	"strconv"

	"github.com/confa-space/voice-agent/pkg/commons"
	"github.com/confa-space/voice-agent/pkg/utils"
)

const (
	defaultSTTBaseURL = "https://stt.api.cloud.yandex.net"
	defaultTTSBaseURL = "https://tts.api.cloud.yandex.net"

	defaultLanguage   = "ru-RU"
	defaultTopic      = "general"
	defaultVoice      = "marina"
	defaultSampleRate = 16000

	numChannels = 1
)

// allowedSampleRates the short-audio API accepts, ascending. Ties during
// nearest-rate selection resolve to the earlier entry.
var allowedSampleRates = []int{8000, 16000, 48000}

// Credential carries the SpeechKit auth material. Exactly one of APIKey and
// IAMToken must be set; FolderID is required for recognition and attached as
// x-folder-id for token-authorized synthesis.
type Credential struct {
	FolderID string
	APIKey   string
	IAMToken string
}

type speechKitOption struct {
	logger     commons.Logger
	credential Credential

	language   string
	topic      string
	sampleRate int

	voice string
	role  string
	speed float64
	model string

	sttBaseURL string
	ttsBaseURL string
}

// NewSpeechKitOption validates credentials and applies defaults. Overrides
// come through the option map: transcribe.language, transcribe.topic,
// audio.sample_rate, speak.voice.id, speak.role, speak.speed, speak.model,
// stt.base_url, tts.base_url.
func NewSpeechKitOption(logger commons.Logger, credential Credential, opts utils.Option) (*speechKitOption, error) {
	if credential.APIKey == "" && credential.IAMToken == "" {
		return nil, fmt.Errorf("speechkit: api key or iam token is required")
	}
	if credential.APIKey != "" && credential.IAMToken != "" {
		return nil, fmt.Errorf("speechkit: api key and iam token are mutually exclusive")
	}
	return &speechKitOption{
		logger:     logger,
		credential: credential,
		language:   opts.GetString("transcribe.language", defaultLanguage),
		topic:      opts.GetString("transcribe.topic", defaultTopic),
		sampleRate: opts.GetInt("audio.sample_rate", 0),
		voice:      opts.GetString("speak.voice.id", defaultVoice),
		role:       opts.GetString("speak.role", ""),
		speed:      opts.GetFloat("speak.speed", 0),
		model:      opts.GetString("speak.model", ""),
		sttBaseURL: opts.GetString("stt.base_url", defaultSTTBaseURL),
		ttsBaseURL: opts.GetString("tts.base_url", defaultTTSBaseURL),
	}, nil
}

// AuthorizationHeader returns the API-key or bearer-token form.
func (o *speechKitOption) AuthorizationHeader() string {
	if o.credential.APIKey != "" {
		return "Api-Key " + o.credential.APIKey
	}
	return "Bearer " + o.credential.IAMToken
}

// NearestAllowedRate maps target to the member of allowedSampleRates with
// the smallest absolute difference. Out-of-set rates are coerced, never
// rejected; if the back-end still refuses the coerced rate that surfaces as
// a back-end failure on the call itself.
func (o *speechKitOption) NearestAllowedRate(target int) int {
	best := allowedSampleRates[0]
	for _, r := range allowedSampleRates[1:] {
		if abs(r-target) < abs(best-target) {
			best = r
		}
	}
	return best
}

// recognitionRate picks the rate for one call: configured rate first, then
// the frame's native rate, then the default, coerced into the allowed set.
func (o *speechKitOption) recognitionRate(frameRate int) int {
	target := o.sampleRate
	if target == 0 {
		target = frameRate
	}
	if target == 0 {
		target = defaultSampleRate
	}
	coerced := o.NearestAllowedRate(target)
	if coerced != target {
		o.logger.Warnf("speechkit-stt: sample rate %d not allowed, using closest %d", target, coerced)
	}
	return coerced
}

func (o *speechKitOption) synthesisRate() int {
	if o.sampleRate > 0 {
		return o.sampleRate
	}
	return defaultSampleRate
}

// synthesisRequest builds the utteranceSynthesis body: ordered hints and a
// raw LINEAR16 output spec with the rate serialized as a string.
func (o *speechKitOption) synthesisRequest(text string) map[string]interface{} {
	hints := []map[string]interface{}{
		{"voice": o.voice},
	}
	if o.role != "" {
		hints = append(hints, map[string]interface{}{"role": o.role})
	}
	if o.speed > 0 {
		hints = append(hints, map[string]interface{}{"speed": o.speed})
	}

	body := map[string]interface{}{
		"text":  text,
		"hints": hints,
		"outputAudioSpec": map[string]interface{}{
			"rawAudio": map[string]interface{}{
				"audioEncoding":   "LINEAR16_PCM",
				"sampleRateHertz": strconv.Itoa(o.synthesisRate()),
			},
		},
	}
	if o.model != "" {
		body["model"] = o.model
	}
	return body
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
