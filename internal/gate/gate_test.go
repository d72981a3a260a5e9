package internal_gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/confa-space/voice-agent/pkg/commons"
)

func newGate(wakeWord string) *TurnGate {
	return NewTurnGate(commons.NewNopLogger(), wakeWord)
}

func TestTurnGate_StartsListening(t *testing.T) {
	g := newGate("buddy")
	assert.False(t, g.Muted())
	assert.Equal(t, DecisionRespond, g.Admit("hello"))
}

func TestTurnGate_SetMutedIdempotent(t *testing.T) {
	g := newGate("buddy")

	assert.True(t, g.SetMuted(true))
	assert.False(t, g.SetMuted(true)) // repeated value: no transition
	assert.True(t, g.SetMuted(false))
	assert.False(t, g.SetMuted(false))
}

func TestTurnGate_FinalStateIsLastValueSent(t *testing.T) {
	g := newGate("")
	for _, v := range []bool{true, true, false, true, false, false} {
		g.SetMuted(v)
	}
	assert.False(t, g.Muted())
}

func TestTurnGate_MutedSuppressesWithoutWakeWord(t *testing.T) {
	g := newGate("buddy")
	g.SetMuted(true)

	assert.Equal(t, DecisionSuppress, g.Admit("hey friend how are you"))
	assert.True(t, g.Muted())
}

func TestTurnGate_WakeWordUnmutesButSuppressesThatUtterance(t *testing.T) {
	g := newGate("buddy")
	g.SetMuted(true)

	// wake word matched case-insensitively; the waking utterance itself
	// gets no reply
	assert.Equal(t, DecisionSuppress, g.Admit("BUDDY wake up"))
	assert.False(t, g.Muted())

	assert.Equal(t, DecisionRespond, g.Admit("tell me a joke"))
}

func TestTurnGate_WakeWordIsSubstringMatch(t *testing.T) {
	g := newGate("buddy")
	g.SetMuted(true)

	assert.Equal(t, DecisionSuppress, g.Admit("hello BuDdY boy"))
	assert.False(t, g.Muted())
}

func TestTurnGate_NoWakeWordConfiguredStaysMuted(t *testing.T) {
	g := newGate("")
	g.SetMuted(true)

	assert.Equal(t, DecisionSuppress, g.Admit("buddy agent wake up please"))
	assert.True(t, g.Muted())
}

func TestTurnGate_ExampleScenario(t *testing.T) {
	g := newGate("buddy")

	// starts LISTENING
	assert.False(t, g.Muted())

	// control.muted:true -> MUTED
	g.SetMuted(true)

	// no wake word -> suppressed, stays muted
	assert.Equal(t, DecisionSuppress, g.Admit("hey friend how are you"))
	assert.True(t, g.Muted())

	// wake word -> listening again, utterance still suppressed
	assert.Equal(t, DecisionSuppress, g.Admit("BUDDY wake up"))
	assert.False(t, g.Muted())

	// next utterance passes through
	assert.Equal(t, DecisionRespond, g.Admit("tell me a joke"))
}
