package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DennitchGlitchie/StreamingPi/internal/broadcast"
	"github.com/DennitchGlitchie/StreamingPi/internal/config"
	"github.com/DennitchGlitchie/StreamingPi/internal/eventlog"
	"github.com/DennitchGlitchie/StreamingPi/internal/journal"
	"github.com/DennitchGlitchie/StreamingPi/internal/monitor"
	"github.com/DennitchGlitchie/StreamingPi/internal/notify"
)

func main() {
	// 1. Parse Arguments
	// Plain tokens, no dash flags. Anything unknown is a usage error.
	toggles, err := config.ParseToggles(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, config.Usage())
		os.Exit(1)
	}

	// 2. Load Config
	cfg := config.Load()

	// 3. Apply Toggles
	cfg.AudioEnabled = toggles.AudioEnabled
	cfg.VisualsEnabled = toggles.VisualsEnabled

	// 4. Route all logging through the stamped activity log
	events, err := eventlog.Open(cfg.Logs.ActivityFile)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer events.Close()
	log.SetFlags(0)
	log.SetOutput(events.Writer())

	errSink, err := os.OpenFile(cfg.Logs.ErrorFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("❌ Open error log: %v", err)
	}
	defer errSink.Close()

	if cfg.DryRun {
		log.Println("🧪 MODE: DRY RUN")
		log.Println("   - Nothing will be launched")
		log.Println("   - The ingest endpoint will NOT be contacted")
	}

	// 5. Init Infrastructure (every piece here is best-effort)
	jr, err := journal.Open(cfg)
	if err != nil {
		log.Printf("⚠️ Session journal unavailable: %v", err)
		jr = nil
	} else if err := jr.AutoMigrate(); err != nil {
		log.Printf("⚠️ Journal migration failed: %v", err)
		jr = nil
	}
	if jr != nil && !cfg.DryRun {
		reportHistory(jr)
	}

	var notifier *notify.Client
	if cfg.Notify.Broker != "" {
		notifier, err = notify.Connect(notify.Config{
			Broker:   cfg.Notify.Broker,
			ClientID: cfg.Notify.ClientID,
			Username: cfg.Notify.Username,
			Password: cfg.Notify.Password,
			Topic:    cfg.Notify.Topic,
		})
		if err != nil {
			log.Printf("⚠️ Notifier unavailable: %v", err)
			notifier = nil
		} else {
			defer notifier.Close()
		}
	}

	broadcast.RegisterMetrics()
	mon := monitor.New(cfg.Monitor.Addr)
	go func() {
		if err := mon.Start(); err != nil {
			log.Printf("⚠️ Monitor server stopped: %v", err)
		}
	}()

	// 6. Run the supervisor until a termination signal lands
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor := broadcast.New(cfg, events.File(), errSink, jr, notifier)
	supervisor.Run(ctx)
}

// reportHistory closes sessions orphaned by a previous run and logs where
// the last one left off.
func reportHistory(jr *journal.Client) {
	if n, err := jr.CloseStale(time.Now()); err == nil && n > 0 {
		log.Printf("📖 Closed %d interrupted session(s) from a previous run", n)
	}
	last, err := jr.LastSession()
	if err != nil || last == nil {
		return
	}
	log.Printf("📖 Last session: %s started %s (%s)",
		last.Mode, last.StartedAt.Format("2006-01-02 15:04:05"), last.Outcome)
}
