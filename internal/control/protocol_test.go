package internal_control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confa-space/voice-agent/pkg/commons"
)

func TestDecode_ValidMessage(t *testing.T) {
	msg := Decode([]byte(`{"topic":"control.muted","value":true}`))
	require.NotNil(t, msg)
	assert.Equal(t, TopicMuted, msg.Topic)
	assert.Equal(t, true, msg.Value)
}

func TestDecode_ValueIsOptional(t *testing.T) {
	msg := Decode([]byte(`{"topic":"control.stop_tts"}`))
	require.NotNil(t, msg)
	assert.Equal(t, TopicStopTTS, msg.Topic)
	assert.Nil(t, msg.Value)
}

func TestDecode_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", []byte{}},
		{"not json", []byte("hello there")},
		{"invalid utf-8", []byte{0xFF, 0xFE, 0x01}},
		{"json number", []byte("42")},
		{"json array", []byte(`["topic"]`)},
		{"missing topic", []byte(`{"value":true}`)},
		{"empty topic", []byte(`{"topic":""}`)},
		{"truncated", []byte(`{"topic":"control.mut`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Decode(tt.payload))
		})
	}
}

func TestDispatch_RoutesByExactTopic(t *testing.T) {
	d := NewDispatcher(commons.NewNopLogger())

	var got interface{}
	d.Handle(TopicSetTarget, func(value interface{}) { got = value })

	d.Dispatch([]byte(`{"topic":"control.set_target","value":"user-7"}`))
	assert.Equal(t, "user-7", got)
}

func TestDispatch_MalformedPayloadFiresNoHandler(t *testing.T) {
	d := NewDispatcher(commons.NewNopLogger())

	fired := false
	d.Handle(TopicMuted, func(interface{}) { fired = true })

	d.Dispatch([]byte("not json at all"))
	d.Dispatch([]byte(`{"value":true}`))
	assert.False(t, fired)
}

func TestDispatch_UnknownTopicIgnored(t *testing.T) {
	d := NewDispatcher(commons.NewNopLogger())

	fired := false
	d.Handle(TopicMuted, func(interface{}) { fired = true })

	// forward-compatible: future topics must not error or misroute
	d.Dispatch([]byte(`{"topic":"control.future_thing","value":1}`))
	assert.False(t, fired)
}

func TestDispatch_ProcessesInOrder(t *testing.T) {
	d := NewDispatcher(commons.NewNopLogger())

	var seen []bool
	d.Handle(TopicMuted, func(value interface{}) {
		b, _ := value.(bool)
		seen = append(seen, b)
	})

	d.Dispatch([]byte(`{"topic":"control.muted","value":true}`))
	d.Dispatch([]byte(`{"topic":"control.muted","value":false}`))
	d.Dispatch([]byte(`{"topic":"control.muted","value":true}`))
	assert.Equal(t, []bool{true, false, true}, seen)
}
