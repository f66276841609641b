//go:build unix

package app

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectSignals_UnixHasHangup(t *testing.T) {
	triggers := DetectSignals()
	assert.Len(t, triggers, 2)
	assert.Equal(t, TriggerHidden, triggers[1].Name())
}

func TestSignalTrigger_FiresOnSignal(t *testing.T) {
	tr := NewSignalTrigger("test", syscall.SIGUSR1)
	fired := make(chan struct{})
	sub := tr.Watch(func() { close(fired) })
	defer sub.Cancel()

	assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
}
