package orch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dkeye/voice-quickstart/internal/app"
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Orchestrator joins sessions and keeps the participants container in sync
// with them until they end.
type Orchestrator struct {
	Source   core.SessionSource
	Binder   *app.Binder
	Triggers []app.Trigger
	Metrics  *metrics.Metrics
}

// Join establishes a session and wires it to sink. The returned ActiveSession
// completes once the session has disconnected and the local preview is gone.
//
// ctx bounds establishment only; use ActiveSession.Leave to end the session.
func (o *Orchestrator) Join(
	ctx context.Context,
	cred domain.Credential,
	opts domain.ConnectOptions,
	sink core.Sink,
	leave core.LeaveControl,
) (*ActiveSession, error) {
	logger := log.With().
		Str("module", "orch").
		Str("room", string(opts.Room)).
		Str("identity", string(cred.Identity)).
		Logger()

	session, err := o.Source.Establish(ctx, cred, opts)
	if err != nil {
		o.Metrics.IncJoinFailure("connection")
		logger.Error().Err(err).Msg("establish failed")
		var connErr *domain.ConnectionError
		if errors.As(err, &connErr) {
			return nil, err
		}
		return nil, &domain.ConnectionError{Room: opts.Room, Err: err}
	}

	preview, err := localPreviewTrack(session)
	if err != nil {
		o.Metrics.IncJoinFailure("precondition")
		logger.Error().Err(err).Msg("no local preview")
		session.Disconnect()
		return nil, err
	}

	binder := o.binder()
	as := newActiveSession(session)
	registry := app.NewRegistry(sink, binder, o.Metrics)

	// Whoever claims first wins: the setup closure, or Join giving up on it.
	// A closure that runs after Join failed must not touch the sink.
	var claimed atomic.Bool
	setupDone := make(chan struct{})
	err = session.Do(ctx, func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		defer close(setupDone)
		if session.State() == domain.SessionDisconnected {
			logger.Warn().Msg("session ended before setup")
			as.complete()
			return
		}
		binder.Attach(preview, sink)
		o.watchRoom(session, registry, as)
		as.subs.Add(session.OnceDisconnected(func() {
			o.teardown(logger, as, binder, preview, registry)
		}))
		o.Metrics.SessionStarted()
	})
	if err != nil {
		if claimed.CompareAndSwap(false, true) {
			o.Metrics.IncJoinFailure("setup")
			logger.Error().Err(err).Msg("session setup failed")
			session.Disconnect()
			return nil, &domain.ConnectionError{Room: opts.Room, Err: err}
		}
		// Setup was already running on the loop; the join goes through.
		<-setupDone
	}

	if as.Ended() {
		return as, nil
	}

	o.wireLeave(logger, as, leave)
	o.wireTriggers(logger, as)

	logger.Info().Int("participants", registry.Len()).Msg("joined")
	return as, nil
}

func (o *Orchestrator) binder() *app.Binder {
	if o.Binder != nil {
		return o.Binder
	}
	return app.NewBinder(o.Metrics)
}

func localPreviewTrack(session core.Session) (core.Track, error) {
	videos := session.LocalParticipant().VideoTracks()
	if len(videos) == 0 {
		return nil, &domain.PreconditionError{Err: domain.ErrNoLocalVideoTrack}
	}
	return videos[0], nil
}

// watchRoom watches every participant present now and every one joining later.
// Runs on the session loop so no participantConnected can slip in between.
func (o *Orchestrator) watchRoom(session core.Session, registry *app.Registry, as *ActiveSession) {
	for _, p := range session.Participants() {
		registry.Watch(p)
	}
	as.subs.Add(session.OnParticipantConnected(func(p core.Participant) {
		registry.Watch(p)
	}))
	as.subs.Add(session.OnParticipantDisconnected(func(p core.Participant) {
		registry.Release(p.Identity())
	}))
}

// teardown runs on the session loop when the session disconnects.
func (o *Orchestrator) teardown(
	logger zerolog.Logger,
	as *ActiveSession,
	binder *app.Binder,
	preview core.Track,
	registry *app.Registry,
) {
	if as.ended.Swap(true) {
		return
	}
	binder.Detach(preview)
	registry.Close()
	as.subs.Cancel()
	as.triggers.Cancel()
	o.Metrics.SessionEnded()
	logger.Info().Msg("left room")
	as.complete()
}

// wireLeave makes the leave control end the session. The handler removes
// itself the first time it fires.
func (o *Orchestrator) wireLeave(logger zerolog.Logger, as *ActiveSession, leave core.LeaveControl) {
	if leave == nil {
		return
	}
	var sub atomic.Pointer[core.Subscription]
	s := leave.OnActivate(func() {
		sub.Load().Cancel()
		logger.Info().Msg("leave requested")
		as.session.Disconnect()
	})
	sub.Store(s)
	as.triggers.Add(s)
}

func (o *Orchestrator) wireTriggers(logger zerolog.Logger, as *ActiveSession) {
	for _, tr := range o.Triggers {
		name := tr.Name()
		as.triggers.Add(tr.Watch(func() {
			logger.Info().Str("trigger", name).Msg("environment asked to leave")
			as.session.Disconnect()
		}))
	}
}
