package internal_transformer_speechkit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_audio "github.com/confa-space/voice-agent/internal/audio"
	internal_transformer "github.com/confa-space/voice-agent/internal/transformer"
	"github.com/confa-space/voice-agent/pkg/commons"
	"github.com/confa-space/voice-agent/pkg/utils"
)

func testCredential() Credential {
	return Credential{FolderID: "folder-1", APIKey: "test-key"}
}

func newSTT(t *testing.T, baseURL string, opts utils.Option) internal_transformer.SpeechToText {
	t.Helper()
	if opts == nil {
		opts = utils.Option{}
	}
	opts["stt.base_url"] = baseURL
	stt, err := NewSpeechKitSpeechToText(commons.NewNopLogger(), testCredential(), opts)
	require.NoError(t, err)
	return stt
}

func pcmFrame(rate int, samples ...int16) internal_audio.Frame {
	return internal_audio.Frame{SampleRate: rate, Channels: 1, Samples: samples}
}

// --- Constructor tests ---

func TestNewSpeechKitSpeechToText_MissingCredential(t *testing.T) {
	_, err := NewSpeechKitSpeechToText(commons.NewNopLogger(), Credential{FolderID: "f"}, utils.Option{})
	assert.Error(t, err)
}

func TestNewSpeechKitSpeechToText_BothCredentialForms(t *testing.T) {
	cred := Credential{FolderID: "f", APIKey: "k", IAMToken: "t"}
	_, err := NewSpeechKitSpeechToText(commons.NewNopLogger(), cred, utils.Option{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestNewSpeechKitSpeechToText_MissingFolderID(t *testing.T) {
	_, err := NewSpeechKitSpeechToText(commons.NewNopLogger(), Credential{APIKey: "k"}, utils.Option{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "folder id")
}

// --- Sample-rate policy ---

func TestNearestAllowedRate(t *testing.T) {
	opt, err := NewSpeechKitOption(commons.NewNopLogger(), testCredential(), utils.Option{})
	require.NoError(t, err)

	tests := []struct {
		target   int
		expected int
	}{
		{8000, 8000},
		{16000, 16000},
		{48000, 48000},
		{22050, 16000},
		{40000, 48000},
		{11000, 8000},
		{12000, 8000}, // equidistant: first candidate in ascending order wins
		{96000, 48000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, opt.NearestAllowedRate(tt.target), "target=%d", tt.target)
	}
}

func TestRecognize_CoercesFrameRate(t *testing.T) {
	var gotRate string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRate = r.URL.Query().Get("sampleRateHertz")
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)
	_, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(22050, 1, 2)})
	require.NoError(t, err)
	assert.Equal(t, "16000", gotRate)
}

func TestRecognize_ConfiguredRateWins(t *testing.T) {
	var gotRate string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRate = r.URL.Query().Get("sampleRateHertz")
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, utils.Option{"audio.sample_rate": 40000})
	_, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1)})
	require.NoError(t, err)
	assert.Equal(t, "48000", gotRate)
}

// --- Request shape ---

func TestRecognize_RequestParamsAndBody(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"folderId": q.Get("folderId"),
			"lang":     q.Get("lang"),
			"topic":    q.Get("topic"),
			"format":   q.Get("format"),
		}
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"result":"привет мир"}`))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)
	res, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1, -2, 3)})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"folderId": "folder-1",
		"lang":     "ru-RU",
		"topic":    "general",
		"format":   "lpcm",
	}, gotQuery)
	assert.Equal(t, "Api-Key test-key", gotAuth)
	assert.Equal(t, internal_audio.BytesFromPCM16([]int16{1, -2, 3}), gotBody)

	assert.Equal(t, "привет мир", res.Text)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, "ru-RU", res.Language)
	assert.Zero(t, res.StartTime)
	assert.Zero(t, res.EndTime)
}

func TestRecognize_BearerAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"result":""}`))
	}))
	defer server.Close()

	opts := utils.Option{"stt.base_url": server.URL}
	stt, err := NewSpeechKitSpeechToText(commons.NewNopLogger(),
		Credential{FolderID: "f", IAMToken: "iam-1"}, opts)
	require.NoError(t, err)

	_, err = stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1)})
	require.NoError(t, err)
	assert.Equal(t, "Bearer iam-1", gotAuth)
}

func TestRecognize_MergeIsOrderPreserving(t *testing.T) {
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)

	_, err := stt.Recognize(context.Background(), []internal_audio.Frame{
		pcmFrame(16000, 1, 2, 3),
		pcmFrame(16000, 4, 5),
	})
	require.NoError(t, err)
	_, err = stt.Recognize(context.Background(), []internal_audio.Frame{
		pcmFrame(16000, 1, 2, 3, 4, 5),
	})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[1], bodies[0])
}

// --- Failure taxonomy ---

func TestRecognize_EmptyResultHasZeroConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)
	res, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1)})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestRecognize_Non2xxIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("access denied"))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)
	_, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1)})
	require.Error(t, err)

	be, ok := internal_transformer.AsBackendError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, be.Status)
	assert.Contains(t, be.Message, "access denied")
}

func TestRecognize_DomainErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error_code":"UNAUTHORIZED","error_message":"token expired"}`))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)
	_, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1)})
	require.Error(t, err)

	be, ok := internal_transformer.AsBackendError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", be.Code)
	assert.Equal(t, "token expired", be.Message)
}

func TestRecognize_MalformedJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	stt := newSTT(t, server.URL, nil)
	_, err := stt.Recognize(context.Background(), []internal_audio.Frame{pcmFrame(16000, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal_transformer.ErrMalformedResponse))
}
