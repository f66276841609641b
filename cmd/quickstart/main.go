package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/voice-quickstart/internal/adapters/http"
	"github.com/dkeye/voice-quickstart/internal/adapters/loopback"
	sigsrc "github.com/dkeye/voice-quickstart/internal/adapters/signal"
	"github.com/dkeye/voice-quickstart/internal/adapters/sink"
	"github.com/dkeye/voice-quickstart/internal/app"
	"github.com/dkeye/voice-quickstart/internal/app/orch"
	"github.com/dkeye/voice-quickstart/internal/config"
	"github.com/dkeye/voice-quickstart/internal/core"
	"github.com/dkeye/voice-quickstart/internal/domain"
	"github.com/dkeye/voice-quickstart/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	m := metrics.New()
	shell := &router.Shell{
		Form:    router.NewForm(),
		Leave:   router.NewLeaveButton(),
		Sink:    sink.NewMemory(),
		Metrics: m,
	}
	o := &orch.Orchestrator{
		Source:   buildSource(cfg, m),
		Binder:   app.NewBinder(m),
		Triggers: app.DetectSignals(),
		Metrics:  m,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.SetupRouter(cfg, shell),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("source", cfg.Source).Msg("quickstart started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return joinLoop(gctx, o, shell, cfg)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("quickstart stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("quickstart exited gracefully")
}

func buildSource(cfg *config.Config, m *metrics.Metrics) core.SessionSource {
	if cfg.Source == config.SourceSignal {
		src := sigsrc.NewSource(cfg.ServerURL, m)
		src.PingPeriod = cfg.PingPeriod
		src.ReadLimit = cfg.ReadLimit
		src.JoinTimeout = cfg.JoinTimeout
		return src
	}
	peers := make([]loopback.Peer, 0, len(cfg.LoopbackPeers))
	for i, id := range cfg.LoopbackPeers {
		peers = append(peers, loopback.Peer{
			Identity:       domain.ParticipantID(id),
			Kinds:          []domain.TrackKind{domain.TrackKindVideo, domain.TrackKindAudio},
			JoinAfter:      time.Duration(i) * 2 * time.Second,
			SubscribeAfter: 500 * time.Millisecond,
		})
	}
	return loopback.NewSource(peers...)
}

// joinLoop offers the room form, joins, waits for the session to end and
// offers the form again.
func joinLoop(ctx context.Context, o *orch.Orchestrator, shell *router.Shell, cfg *config.Config) error {
	for {
		sel, err := shell.Form.Select(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		opts := domain.ConnectOptions{
			Room:       sel.Room,
			Audio:      cfg.Audio,
			Video:      cfg.Video,
			VideoCodec: cfg.VideoCodec,
			ICEServers: cfg.ICEServers,
		}
		as, err := o.Join(ctx, sel.Credential, opts, shell.Sink, shell.Leave)
		if err != nil {
			log.Error().Err(err).Str("module", "main").Str("room", string(sel.Room)).Msg("join failed")
			continue
		}

		if err := as.Wait(ctx); err != nil {
			as.Leave()
			<-as.Done()
			return nil
		}
		shell.Sink.Clear()
		log.Info().Str("module", "main").Str("room", string(sel.Room)).Msg("session ended")
	}
}
