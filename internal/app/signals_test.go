package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSignals(t *testing.T) {
	triggers := DetectSignals()
	if assert.NotEmpty(t, triggers) {
		assert.Equal(t, TriggerTerminate, triggers[0].Name())
		assert.Contains(t, triggers[0].(*SignalTrigger).Signals(), os.Interrupt)
	}
	names := map[string]bool{}
	for _, tr := range triggers {
		assert.False(t, names[tr.Name()], "duplicate trigger %s", tr.Name())
		names[tr.Name()] = true
	}
}

func TestSignalTrigger_CancelStopsWatching(t *testing.T) {
	tr := NewSignalTrigger("test", os.Interrupt)
	sub := tr.Watch(func() { t.Error("trigger fired") })
	sub.Cancel()
	sub.Cancel()
}
