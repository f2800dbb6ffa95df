// Package broadcast keeps exactly one encoder process on air. It owns the
// supervision loop: launch the primary webcam pipeline, degrade to the
// visuals-only fallback when the webcam is unusable, rotate the stream on
// a fixed schedule, and back off when nothing can start.
package broadcast

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DennitchGlitchie/StreamingPi/internal/config"
	"github.com/DennitchGlitchie/StreamingPi/internal/encoder"
	"github.com/DennitchGlitchie/StreamingPi/internal/journal"
	"github.com/DennitchGlitchie/StreamingPi/internal/media"
	"github.com/DennitchGlitchie/StreamingPi/internal/notify"
)

// Metrics
var (
	launchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "streampi_launches_total", Help: "Encoder launches"},
		[]string{"pipeline"},
	)
	pipelineFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "streampi_pipeline_failures_total", Help: "Build and launch failures"},
		[]string{"pipeline", "stage"},
	)
	encoderDeaths = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "streampi_encoder_deaths_total", Help: "Encoders found dead at a poll tick"},
	)
	scheduledRestarts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "streampi_scheduled_restarts_total", Help: "Rotations forced by the restart schedule"},
	)
	fallbackActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "streampi_fallback_active", Help: "1 while the fallback pipeline is on air"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(launchesTotal, pipelineFailures, encoderDeaths, scheduledRestarts, fallbackActive)
}

// Mode identifies which pipeline variant is on air.
type Mode string

const (
	ModePrimary  Mode = "primary"
	ModeFallback Mode = "fallback"
)

// State is one node of the supervision loop.
type State string

const (
	StateStartingPrimary  State = "starting_primary"
	StateRunningPrimary   State = "running_primary"
	StateStartingFallback State = "starting_fallback"
	StateRunningFallback  State = "running_fallback"
	StateBackoff          State = "backoff"
	StateShuttingDown     State = "shutting_down"
)

const (
	// terminationGrace is the window between SIGTERM and the next launch.
	// The capture device can lag the process on release, so even an
	// already-dead encoder gets the full wait.
	terminationGrace = 5 * time.Second

	// backoffDelay paces retries when neither pipeline can start.
	backoffDelay = 10 * time.Second
)

// Supervisor drives the encoder lifecycle from a single goroutine. All
// transitions, kills and launches happen on the control loop; nothing
// here needs a mutex.
type Supervisor struct {
	cfg      *config.Config
	procOut  io.Writer // encoder stdout, appended to the activity log
	procErr  io.Writer // encoder stderr, appended to the error log
	journal  *journal.Client
	notifier *notify.Client
	clock    Clock
	launch   launcher

	mode      Mode
	proc      process
	startedAt time.Time
	sessionID uint
}

// New wires a supervisor. The journal and notifier may be nil; the loop
// runs fine without either.
func New(cfg *config.Config, procOut, procErr io.Writer, jr *journal.Client, ntf *notify.Client) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		procOut:  procOut,
		procErr:  procErr,
		journal:  jr,
		notifier: ntf,
		clock:    RealClock{},
		launch:   launchEncoder,
	}
}

// Run drives the supervision loop until ctx is cancelled. Pipeline
// failures never end the loop; the chain is primary, then fallback, then
// a paced retry from the top.
func (s *Supervisor) Run(ctx context.Context) {
	if s.cfg.DryRun {
		s.preview()
		return
	}

	log.Printf("🚀 Broadcast supervisor starting (audio=%t, visuals=%t)",
		s.cfg.AudioEnabled, s.cfg.VisualsEnabled)

	state := StateStartingPrimary
	for {
		if ctx.Err() != nil {
			state = StateShuttingDown
		}

		switch state {
		case StateStartingPrimary:
			state = s.startStream(ModePrimary)
		case StateStartingFallback:
			state = s.startStream(ModeFallback)
		case StateRunningPrimary, StateRunningFallback:
			state = s.watch(ctx, state)
		case StateBackoff:
			state = s.backoff(ctx)
		case StateShuttingDown:
			s.shutdown()
			return
		}
	}
}

// compose resolves the media inputs fresh and builds the invocation for
// mode. Directory changes are picked up here, at (re)start, never while
// a stream is on air.
func (s *Supervisor) compose(mode Mode) (encoder.Command, media.Playlist, error) {
	var playlist media.Playlist

	if mode == ModeFallback && !s.cfg.VisualsEnabled {
		return encoder.Command{}, playlist, encoder.ErrFallbackUnavailable
	}

	var visuals string
	if s.cfg.VisualsEnabled {
		resolved, err := media.ResolveVisuals(s.cfg.Media.VisualsDir)
		if err != nil {
			return encoder.Command{}, playlist, err
		}
		visuals = resolved
		log.Printf("🎞️ Visuals asset: %s", filepath.Base(visuals))
	}

	if s.cfg.AudioEnabled {
		built, err := media.BuildPlaylist(s.cfg.Media.AudioDir, s.cfg.Media.PlaylistPath)
		if err != nil {
			return encoder.Command{}, playlist, err
		}
		playlist = built
	}

	if mode == ModePrimary {
		command, err := encoder.BuildPrimary(s.cfg, visuals, playlist.Path)
		return command, playlist, err
	}
	command, err := encoder.BuildFallback(s.cfg, visuals, playlist.Path)
	return command, playlist, err
}

// startStream composes and launches one pipeline. A primary that cannot
// start degrades to the fallback; a fallback that cannot start parks the
// loop in backoff.
func (s *Supervisor) startStream(mode Mode) State {
	onFailure := StateStartingFallback
	if mode == ModeFallback {
		onFailure = StateBackoff
	}

	command, playlist, err := s.compose(mode)
	if err != nil {
		log.Printf("❌ Cannot build %s pipeline: %v", mode, err)
		pipelineFailures.WithLabelValues(string(mode), "build").Inc()
		return onFailure
	}
	if s.cfg.AudioEnabled {
		log.Printf("🎶 Playlist rebuilt: %d tracks", len(playlist.Files))
		if len(playlist.Files) == 0 {
			log.Printf("⚠️ Playlist is empty (no .mp3 in %s)", s.cfg.Media.AudioDir)
		}
	}

	proc, err := s.launch(command, s.procOut, s.procErr)
	if err != nil {
		log.Printf("❌ Cannot launch %s pipeline: %v", mode, err)
		pipelineFailures.WithLabelValues(string(mode), "launch").Inc()
		return onFailure
	}

	s.mode = mode
	s.proc = proc
	s.startedAt = s.clock.Now()
	s.openSession(mode, proc.PID())
	s.publish(notify.Event{Type: notify.EventStreamStarted, Mode: string(mode), PID: proc.PID()})
	launchesTotal.WithLabelValues(string(mode)).Inc()

	if mode == ModeFallback {
		fallbackActive.Set(1)
		log.Printf("🖼️ Fallback pipeline on air (pid %d)", proc.PID())
		return StateRunningFallback
	}
	fallbackActive.Set(0)
	log.Printf("🎥 Primary pipeline on air (pid %d)", proc.PID())
	return StateRunningPrimary
}

// watch sleeps one poll interval, then re-evaluates the running stream.
// The poll wait is the only place the loop suspends while a stream is on
// air; a termination signal cuts it short.
func (s *Supervisor) watch(ctx context.Context, current State) State {
	select {
	case <-ctx.Done():
		return StateShuttingDown
	case <-s.clock.After(s.cfg.PollInterval()):
	}
	return s.tick(ctx, current)
}

// tick applies the liveness check first, then the rotation schedule. A
// death between polls is only noticed here, at the next tick.
func (s *Supervisor) tick(ctx context.Context, current State) State {
	if !s.proc.Alive() {
		log.Printf("💀 Encoder died (pid %d): %s", s.proc.PID(), exitReason(s.proc))
		encoderDeaths.Inc()
		fallbackActive.Set(0)
		s.closeSession("died")
		s.publish(notify.Event{Type: notify.EventStreamStopped, Mode: string(s.mode), Reason: "died"})
		s.proc = nil
		return StateStartingFallback
	}

	if elapsed := s.clock.Now().Sub(s.startedAt); elapsed >= s.cfg.RestartInterval() {
		log.Printf("⏰ Rotation due after %s. Restarting primary pipeline...", elapsed.Round(time.Second))
		scheduledRestarts.Inc()
		s.stopEncoder(ctx, "scheduled_restart")
		return StateStartingPrimary
	}

	return current
}

// stopEncoder signals the encoder and sits out the fixed grace period
// before the caller launches again. Safe against a process that already
// exited: the failed signal is logged and the sequence carries on.
func (s *Supervisor) stopEncoder(ctx context.Context, outcome string) {
	if s.proc == nil {
		return
	}
	if err := s.proc.Signal(syscall.SIGTERM); err != nil {
		log.Printf("⚠️ Terminate encoder (pid %d): %v", s.proc.PID(), err)
	}

	select {
	case <-ctx.Done():
	case <-s.clock.After(terminationGrace):
	}

	if s.proc.Alive() {
		if err := s.proc.Kill(); err != nil {
			log.Printf("⚠️ Kill encoder (pid %d): %v", s.proc.PID(), err)
		}
	}

	fallbackActive.Set(0)
	s.closeSession(outcome)
	s.publish(notify.Event{Type: notify.EventStreamStopped, Mode: string(s.mode), Reason: outcome})
	s.proc = nil
}

// backoff paces the loop when neither pipeline can start, then tries the
// primary again from scratch.
func (s *Supervisor) backoff(ctx context.Context) State {
	log.Printf("⏳ No pipeline available. Retrying in %s...", backoffDelay)
	s.publish(notify.Event{Type: notify.EventBackoff})

	select {
	case <-ctx.Done():
		return StateShuttingDown
	case <-s.clock.After(backoffDelay):
		return StateStartingPrimary
	}
}

func (s *Supervisor) shutdown() {
	log.Println("🛑 Termination signal received. Shutting down...")

	if s.proc != nil {
		_ = s.proc.Signal(syscall.SIGTERM)
		select {
		case <-s.proc.Done():
		case <-s.clock.After(terminationGrace):
		}
		if s.proc.Alive() {
			_ = s.proc.Kill()
		}
		s.closeSession("shutdown")
		s.publish(notify.Event{Type: notify.EventStreamStopped, Mode: string(s.mode), Reason: "shutdown"})
		s.proc = nil
	}

	fallbackActive.Set(0)
	log.Println("👋 Supervisor stopped")
}

// preview composes both pipelines and prints them without launching
// anything. The playlist artifact is still written; it is part of what
// gets previewed.
func (s *Supervisor) preview() {
	log.Println("🧪 Dry run. Composed pipelines:")
	for _, mode := range []Mode{ModePrimary, ModeFallback} {
		command, _, err := s.compose(mode)
		if err != nil {
			log.Printf("   %s: unavailable (%v)", mode, err)
			continue
		}
		log.Printf("   %s: %s", mode, command)
	}
}

func (s *Supervisor) openSession(mode Mode, pid int) {
	if s.journal == nil {
		return
	}
	id, err := s.journal.StartSession(string(mode), pid, s.clock.Now())
	if err != nil {
		log.Printf("⚠️ Journal write failed: %v", err)
		return
	}
	s.sessionID = id
}

func (s *Supervisor) closeSession(outcome string) {
	if s.journal == nil || s.sessionID == 0 {
		return
	}
	if err := s.journal.EndSession(s.sessionID, s.clock.Now(), outcome); err != nil {
		log.Printf("⚠️ Journal write failed: %v", err)
	}
	s.sessionID = 0
}

func (s *Supervisor) publish(event notify.Event) {
	if s.notifier == nil {
		return
	}
	event.Timestamp = s.clock.Now()
	s.notifier.Publish(event)
}

func exitReason(p process) string {
	if err := p.WaitErr(); err != nil {
		return err.Error()
	}
	return "exit status 0"
}
