// Package main runs a Pet Bullet Heaven session and serves it to a browser
// host over WebSocket, with a gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/petheaven/internal/config"
	"github.com/cory-johannsen/petheaven/internal/frontend/ws"
	"github.com/cory-johannsen/petheaven/internal/game/ability"
	"github.com/cory-johannsen/petheaven/internal/game/combat"
	"github.com/cory-johannsen/petheaven/internal/game/dice"
	"github.com/cory-johannsen/petheaven/internal/game/food"
	"github.com/cory-johannsen/petheaven/internal/game/hunger"
	"github.com/cory-johannsen/petheaven/internal/game/pet"
	"github.com/cory-johannsen/petheaven/internal/game/session"
	"github.com/cory-johannsen/petheaven/internal/game/space"
	"github.com/cory-johannsen/petheaven/internal/observability"
	"github.com/cory-johannsen/petheaven/internal/scripting"
	"github.com/cory-johannsen/petheaven/internal/server"
	"github.com/cory-johannsen/petheaven/internal/storage/memory"
	"github.com/cory-johannsen/petheaven/internal/storage/postgres"
	"github.com/cory-johannsen/petheaven/internal/store"
	"github.com/cory-johannsen/petheaven/internal/telemetry"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "petheaven")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting petheaven",
		zap.String("host_addr", cfg.Host.Addr()),
		zap.String("health_addr", cfg.Health.Addr()),
	)

	lifecycle := server.NewLifecycle(logger)
	src := dice.NewCryptoSource()

	// Content
	contentStart := time.Now()
	abilities, roster, foodTemplates, err := loadContent(cfg.Content, cfg.Session.ActivePets)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Strings("abilities", abilities.IDs()),
		zap.Int("pets", roster.Len()),
		zap.Int("foods", len(foodTemplates)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Persistence
	var counters store.Store = memory.New()
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		counters = pool.Counters()

		dbCtx, stopWatch := context.WithCancel(ctx)
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				return pool.WatchHealth(dbCtx, 30*time.Second, 5*time.Second, logger)
			},
			StopFn: func() {
				stopWatch()
				pool.Close()
			},
		})
	}

	meter, err := hunger.NewMeter(counters, hunger.Config{
		BaseMax:       cfg.Stage.BaseMaxHunger,
		MaxMultiplier: cfg.Stage.MaxHungerMultiplier,
		HealthGrowth:  cfg.Stage.FoodHealthGrowth,
	}, logger)
	if err != nil {
		logger.Fatal("creating hunger meter", zap.Error(err))
	}

	spawner, err := food.NewSpawner(food.SpawnConfig{
		Interval:  cfg.Spawner.Interval,
		Batch:     cfg.Spawner.Batch,
		MaxAlive:  cfg.Spawner.MaxAlive,
		MinRadius: cfg.Spawner.MinRadius,
		MaxRadius: cfg.Spawner.MaxRadius,
		Templates: cfg.Spawner.Templates,
	}, foodTemplates, src, logger)
	if err != nil {
		logger.Fatal("creating food spawner", zap.Error(err))
	}

	// Scripting
	var hooks combat.Hooks
	if cfg.Content.ScriptsDir != "" {
		scriptMgr := scripting.NewManager(src, cfg.Content.InstructionLimit, logger)
		if err := scriptMgr.LoadDir(cfg.Content.ScriptsDir); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		defer scriptMgr.Close()
		hooks = scriptMgr
	}

	// Telemetry
	var kills combat.KillSink
	killLog, err := telemetry.OpenKillLog(cfg.Telemetry.OutputDir, logger)
	if err != nil {
		logger.Fatal("opening kill log", zap.Error(err))
	}
	if killLog != nil {
		defer func() { _ = killLog.Close() }()
		kills = killLog
	}

	// Session and host bridge
	var sess *session.Session
	hub := ws.NewHub(ws.InputFunc(func(dir space.Vec) { sess.MovePlayer(dir) }),
		cfg.Session.TickRate, cfg.Host.AllowedOrigin, logger)

	sess, err = session.New(session.Config{
		TickRate:        cfg.Session.TickRate,
		ContactCooldown: cfg.Session.ContactCooldown,
		PlayerSpeed:     cfg.Session.PlayerSpeed,
		PetSpacing:      cfg.Session.PetSpacing,
		PetRadius:       cfg.Session.PetRadius,
		AutoAdvance:     cfg.Session.AutoAdvance,
	}, session.Deps{
		Roster:  roster,
		Spawner: spawner,
		Meter:   meter,
		Source:  src,
		Audio:   hub,
		UI:      hub,
		Hooks:   hooks,
		Kills:   kills,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("creating session", zap.Error(err))
	}
	sess.Scheduler().Every("snapshot", cfg.Session.SnapshotInterval, func() {
		if hub.Clients() > 0 {
			hub.PublishState(snapshot(sess, meter))
		}
	})

	sessCtx, cancelSession := context.WithCancel(ctx)
	sessDone := make(chan struct{})
	lifecycle.Add("session", &server.FuncService{
		StartFn: func() error {
			defer close(sessDone)
			if err := sess.Start(sessCtx); err != nil {
				return err
			}
			if err := sess.Run(sessCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
		StopFn: func() {
			cancelSession()
			<-sessDone
			sess.Teardown()
			logger.Info("session summary",
				zap.Int64("total_score", meter.Total()),
				zap.Int("stage", meter.Stage()),
				zap.Int("kills", killLog.Count()),
			)
		},
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.Host.Path, hub)
	httpServer := &http.Server{
		Addr:              cfg.Host.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lifecycle.Add("host", &server.FuncService{
		StartFn: func() error {
			logger.Info("websocket bridge listening",
				zap.String("addr", cfg.Host.Addr()),
				zap.String("path", cfg.Host.Path),
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", cfg.Host.Addr(), err)
			}
			return nil
		},
		StopFn: func() {
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	})

	healthSvc := server.NewHealthService(cfg.Health.Addr(), logger)
	lifecycle.OnStatus(healthSvc.SetServing)
	lifecycle.Add("health", healthSvc)

	logger.Info("petheaven initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// loadContent reads every template directory and builds the active roster.
func loadContent(c config.ContentConfig, active []string) (*ability.Registry, *pet.Roster, map[string]*food.Template, error) {
	abilityTemplates, err := ability.LoadTemplates(c.AbilitiesDir)
	if err != nil {
		return nil, nil, nil, err
	}
	abilities, err := ability.NewRegistryFromTemplates(abilityTemplates)
	if err != nil {
		return nil, nil, nil, err
	}

	petTemplates, err := pet.LoadTemplates(c.PetsDir)
	if err != nil {
		return nil, nil, nil, err
	}
	byID := make(map[string]*pet.Template, len(petTemplates))
	for _, t := range petTemplates {
		byID[t.ID] = t
	}
	roster := pet.NewRoster()
	for _, id := range active {
		t, ok := byID[id]
		if !ok {
			return nil, nil, nil, fmt.Errorf("active pet %q has no template", id)
		}
		p, err := t.Spawn(abilities)
		if err != nil {
			return nil, nil, nil, err
		}
		roster.Add(p)
	}

	foodTemplates, err := food.LoadTemplates(c.FoodsDir)
	if err != nil {
		return nil, nil, nil, err
	}
	foods := make(map[string]*food.Template, len(foodTemplates))
	for _, t := range foodTemplates {
		foods[t.ID] = t
	}
	return abilities, roster, foods, nil
}
