package app

import (
	"os"
	"os/signal"

	"github.com/dkeye/voice-quickstart/internal/core"
)

// Trigger is an environment event that should end the session.
type Trigger interface {
	Name() string
	// Watch calls fn at most once, when the event happens, until cancelled.
	Watch(fn func()) *core.Subscription
}

const (
	TriggerTerminate = "terminate"
	TriggerHidden    = "hidden"
)

// SignalTrigger fires on any of a set of process signals.
type SignalTrigger struct {
	name    string
	signals []os.Signal
}

func NewSignalTrigger(name string, sigs ...os.Signal) *SignalTrigger {
	return &SignalTrigger{name: name, signals: sigs}
}

func (s *SignalTrigger) Name() string { return s.name }

func (s *SignalTrigger) Signals() []os.Signal { return s.signals }

func (s *SignalTrigger) Watch(fn func()) *core.Subscription {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ch:
			fn()
		case <-stop:
		}
	}()
	return core.NewSubscription(func() {
		signal.Stop(ch)
		close(stop)
	})
}

// DetectSignals reports which termination triggers the platform can deliver.
// Every available trigger is returned; none is preferred over another.
func DetectSignals() []Trigger {
	var triggers []Trigger
	if sigs := terminateSignals(); len(sigs) > 0 {
		triggers = append(triggers, NewSignalTrigger(TriggerTerminate, sigs...))
	}
	if sigs := hangupSignals(); len(sigs) > 0 {
		triggers = append(triggers, NewSignalTrigger(TriggerHidden, sigs...))
	}
	return triggers
}
