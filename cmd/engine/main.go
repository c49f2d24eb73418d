package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidewater/engine/internal/config"
	"github.com/tidewater/engine/internal/core/event"
	"github.com/tidewater/engine/internal/core/runtime"
	"github.com/tidewater/engine/internal/data"
	"github.com/tidewater/engine/internal/persist"
	"github.com/tidewater/engine/internal/scripting"
	"github.com/tidewater/engine/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  +-------------------------------------------+\033[0m")
	fmt.Println("\033[36;1m  |\033[0m           tidewater engine  v0.1.0        \033[36;1m|\033[0m")
	fmt.Println("\033[36;1m  +-------------------------------------------+\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1minstance:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m-- %s ", title)
	for i := 0; i < lineLen; i++ {
		fmt.Print("-")
	}
	fmt.Print("\033[0m\n")
}

func printOK(msg string) {
	fmt.Printf("  \033[32m*\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m>\033[0m %s\n", msg)
}

// ── Main engine logic ──────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("ENGINE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Engine.Name)

	// 3. Optional Postgres: no DSN means the engine runs without snapshots.
	var snapshotRepo *persist.SnapshotRepo
	if cfg.Database.DSN != "" {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		fmt.Println()

		snapshotRepo = persist.NewSnapshotRepo(db)
	} else {
		log.Info("no database dsn configured, snapshots disabled")
	}

	// 4. Lua scripting
	var luaEngine *scripting.Engine
	if cfg.Scripts.Enabled {
		printSection("scripting")
		luaEngine, err = scripting.NewEngine(cfg.Scripts.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		printOK("lua scripts loaded")
		fmt.Println()
	}

	// 5. Build the runtime: manager, queue, systems, dependencies.
	mgr := runtime.NewManager(log)
	queue := event.NewQueue(log)

	mgr.Provide(runtime.DepManager, mgr)
	mgr.Provide(runtime.DepEventQueue, queue)
	if snapshotRepo != nil {
		mgr.Provide(runtime.DepSnapshots, snapshotRepo)
	}
	if luaEngine != nil {
		mgr.Provide(runtime.DepScripting, luaEngine)
	}

	if err := mgr.Register(queue); err != nil {
		return fmt.Errorf("register queue: %w", err)
	}
	if luaEngine != nil {
		if err := mgr.Register(system.NewScriptSystem(log)); err != nil {
			return fmt.Errorf("register script system: %w", err)
		}
	}
	if err := mgr.Register(system.NewHeartbeatSystem(queue, cfg.Engine.HeartbeatEvery, cfg.Engine.HeartbeatEcho)); err != nil {
		return fmt.Errorf("register heartbeat system: %w", err)
	}
	if err := mgr.Register(system.NewSnapshotSystem(log, cfg.Engine.SnapshotInterval)); err != nil {
		return fmt.Errorf("register snapshot system: %w", err)
	}

	if err := mgr.Init(); err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}

	// 6. Boot timeline: scheduled after Init so script subscriptions exist.
	if cfg.Engine.TimelinePath != "" {
		timeline, err := data.LoadTimeline(cfg.Engine.TimelinePath)
		if err != nil {
			return fmt.Errorf("load timeline: %w", err)
		}
		timeline.Schedule(queue)
		log.Info("boot timeline scheduled", zap.Int("events", timeline.Count()))
	}

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	printSection("engine ready")
	printReady(fmt.Sprintf("systems registered: %d", mgr.Count()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Engine.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if err := mgr.Update(cfg.Engine.TickRate); err != nil {
				return fmt.Errorf("update: %w", err)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			mgr.Destroy()
			log.Info("engine stopped")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
