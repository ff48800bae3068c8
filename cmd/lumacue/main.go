// LumaCue - audio-synchronised DMX512 lighting controller.
//
// This is the main entry point for the controller daemon. It drives a
// 512-channel DMX universe from a serial adapter, plays sequenced light
// shows locked to audio playback, and advances playlists from a physical
// button, with an HTTP/WebSocket API for front-end control.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumacue/lumacue-core/internal/api"
	"github.com/lumacue/lumacue-core/internal/audio"
	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/infrastructure/config"
	"github.com/lumacue/lumacue-core/internal/infrastructure/database"
	"github.com/lumacue/lumacue-core/internal/infrastructure/logging"
	"github.com/lumacue/lumacue-core/internal/infrastructure/mqtt"
	"github.com/lumacue/lumacue-core/internal/player"
	"github.com/lumacue/lumacue-core/internal/show"
	"github.com/lumacue/lumacue-core/internal/trigger"
	"github.com/lumacue/lumacue-core/migrations"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for consistent exit
// code handling.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting LumaCue",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn("config file not found, using defaults", "path", configPath)
		cfg = config.Default()
	case err != nil:
		return fmt.Errorf("loading config: %w", err)
	default:
		log.Info("configuration loaded", "path", configPath)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.Files()); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Repositories and the patched-fixture registry
	fixtureRepo := fixture.NewSQLiteRepository(db.DB)
	showRepo := show.NewSQLiteRepository(db.DB)

	registry := fixture.NewRegistry(fixtureRepo)
	if reloadErr := registry.Reload(ctx); reloadErr != nil {
		return fmt.Errorf("loading fixture registry: %w", reloadErr)
	}
	log.Info("fixture registry loaded", "patched", registry.Count())

	// DMX output. Without hardware the transmitter runs against a no-op
	// line so everything else still works.
	universe := dmx.NewUniverse()
	line := openLine(cfg, log)
	defer line.Close()

	transmitter := dmx.NewTransmitter(universe, line, dmx.TransmitterConfig{
		FramePeriod: cfg.FramePeriod(),
		BreakBaud:   cfg.DMX.BreakBaud,
		Logger:      log,
	})
	transmitter.Start()
	defer transmitter.Stop()
	log.Info("dmx transmitter started", "frame_rate", cfg.DMX.FrameRate)

	// Audio output, degrading to silent playback if the speaker cannot
	// be initialised.
	output := openAudio(cfg, log)
	defer output.Close()
	transport := audio.NewTransport(output, audio.TransportConfig{Logger: log})

	// Playback
	p := player.New(universe, transport, showRepo, registry, player.Config{
		Logger: log,
	})
	defer p.Stop()

	// HTTP API and WebSocket hub
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Player:   p,
		Universe: universe,
		Fixtures: fixtureRepo,
		Registry: registry,
		Shows:    showRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	// Status fan-out: WebSocket clients always, MQTT when configured.
	broadcasters := []player.Broadcaster{server.Hub()}
	var statusPub *mqtt.StatusPublisher

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to mqtt: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from mqtt")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing mqtt", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		statusPub = mqtt.NewStatusPublisher(mqttClient, log)
		broadcasters = append(broadcasters, statusPub)
		log.Info("mqtt connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("mqtt disabled")
	}

	p.SetBroadcaster(player.MultiBroadcaster(broadcasters...))

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting api server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing api server", "error", closeErr)
		}
	}()

	// Physical button trigger
	if cfg.Button.Enabled {
		input, inputErr := trigger.NewGPIOInput(cfg.Button.Pin)
		if inputErr != nil {
			log.Warn("button input unavailable, trigger disabled", "error", inputErr)
		} else {
			defer input.Close()
			triggerCfg := trigger.Config{
				PollInterval: cfg.Button.PollInterval(),
				Debounce:     cfg.Button.Debounce(),
				Cooldown:     cfg.Button.Cooldown(),
				Logger:       log,
			}
			if statusPub != nil {
				triggerCfg.Notifier = statusPub
			}
			advancer := trigger.New(input, showRepo, p, trigger.NewCursor(nil), triggerCfg)
			go advancer.Run(ctx)
			log.Info("button trigger armed", "pin", cfg.Button.Pin)
		}
	} else {
		log.Info("button trigger disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Stop playback and blackout so the transmitter sends dark frames
	// before it is torn down.
	p.Stop()
	universe.ClearAll()
	return nil
}

// openLine opens the configured serial port, falling back to a no-op
// line when DMX output is disabled or the port cannot be opened.
func openLine(cfg *config.Config, log *logging.Logger) dmx.Line {
	if !cfg.DMX.Enabled {
		log.Info("dmx output disabled, using no-op line")
		return dmx.NopLine{}
	}

	line, err := dmx.OpenLine(cfg.DMX.Port)
	if err != nil {
		log.Warn("dmx port unavailable, using no-op line",
			"port", cfg.DMX.Port, "error", err)
		return dmx.NopLine{}
	}
	log.Info("dmx port opened", "port", cfg.DMX.Port)
	return line
}

// openAudio initialises the speaker, falling back to a silent output so
// lighting still runs on machines without an audio device.
func openAudio(cfg *config.Config, log *logging.Logger) audio.Output {
	output, err := audio.NewBeepOutput(cfg.Audio.SampleRate, cfg.Audio.BufferMS)
	if err != nil {
		log.Warn("audio device unavailable, playback will be silent", "error", err)
		return audio.NopOutput{}
	}
	log.Info("audio output initialised", "sample_rate", cfg.Audio.SampleRate)
	return output
}

// getConfigPath returns the configuration file path, honouring the
// LUMACUE_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("LUMACUE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
