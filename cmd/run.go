package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "sensornode/docs"
	"sensornode/internal/collector"
	"sensornode/internal/config"
	"sensornode/internal/handlers"
	"sensornode/internal/indicator"
	"sensornode/internal/logger"
	"sensornode/internal/models"
	"sensornode/internal/netlink"
	"sensornode/internal/repository"
	"sensornode/internal/repository/db"
	"sensornode/internal/sensor"
	"sensornode/internal/server"
	"sensornode/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sensor node",
	Long: "run boots the node: startup window, network join, then the sampling loop. " +
		"A restart under restart_mode=exit terminates the process with a non-zero status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runNode(ctx, cfg)
	},
}

func runNode(ctx context.Context, cfg *config.Config) error {
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(conn)
	journal := service.NewJournal(repos.StateRepo, repos.EventRepo, log)

	// indicator outputs
	hub := indicator.NewHub()
	outputs := indicator.Multi{indicator.NewLog(log), hub}
	if cfg.Indicator.MQTT.Enabled {
		mirror := indicator.NewMQTT(cfg.Indicator.MQTT, cfg.Device.ID, log)
		if err := mirror.Start(); err != nil {
			log.Warnw("mqtt_mirror_disabled", "err", err)
		} else {
			defer mirror.Stop()
			outputs = append(outputs, mirror)
		}
	}
	patterns := service.NewPatternTable(cfg.Indicator.BlinkOn, cfg.Indicator.BlinkOff)
	ctrl := service.NewIndicatorController(outputs, patterns, journal, log)
	gate := service.NewStartupGate()

	sens, closeSensor, err := newSensor(cfg.Sensor, log)
	if err != nil {
		return err
	}
	defer closeSensor()

	client := collector.New(cfg.Collector, cfg.Device.ID, log)
	reporter := service.NewErrorReporter(client, cfg.Device.ID, cfg.Collector.Timeout, log)

	restart := service.RestartInProcess
	if cfg.Device.RestartMode == config.RestartExit {
		restart = service.RestartExit
	}
	device := service.NewDevice(service.DeviceOptions{
		ID:           cfg.Device.ID,
		Credentials:  models.Credentials{SSID: cfg.Network.SSID, Password: cfg.Network.Password},
		StartupDelay: cfg.Device.StartupDelay,
		RestartDelay: cfg.Device.RestartDelay,
		Restart:      restart,
		Connect: service.ConnectOptions{
			PollInterval: cfg.Network.PollInterval,
			MaxAttempts:  cfg.Network.MaxAttempts,
		},
		Sampling: service.SamplingOptions{
			Interval:         cfg.Sampling.Interval,
			FailureThreshold: cfg.Sampling.FailureThreshold,
		},
	}, service.DeviceDeps{
		Indicator:  ctrl,
		Gate:       gate,
		NewNetwork: networkFactory(cfg.Network, log),
		Sensor:     sens,
		Tx:         client,
		Reporter:   reporter,
		Recorder:   journal,
		Log:        log,
	})

	if cfg.Debug.Enabled {
		auth := service.NewAuthService(models.Operator{
			Username:     cfg.Debug.Operator,
			PasswordHash: cfg.Debug.PasswordHash,
		}, cfg.Debug.SigningKey, cfg.Debug.TokenTTL)
		services := service.NewService(service.Deps{
			Repos:    repos,
			Live:     ctrl,
			Gate:     gate,
			Patterns: patterns,
			Auth:     auth,
		})
		if cfg.Log.Level != logger.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		apiHandler := handlers.NewHandler(services, hub, log, handlers.Options{
			RateLimitPerSec: cfg.Debug.RateLimitPerSec,
			RateBurst:       cfg.Debug.RateBurst,
			CacheTTL:        cfg.Debug.CacheTTL,
		})

		srv := &server.Server{}
		runHTTPServer(srv, cfg.Debug.Port, apiHandler, log)
		defer shutdownHTTPServer(srv, log)
	}

	log.Infow("node_starting", "device_id", cfg.Device.ID, "network", cfg.Network.Driver, "sensor", cfg.Sensor.Driver)
	err = device.Run(ctx)
	switch {
	case errors.Is(err, service.ErrRestartRequired):
		log.Errorw("node_exit_for_restart", "err", err)
		return err
	case errors.Is(err, context.Canceled):
		log.Infow("node_stopped")
		return nil
	default:
		return err
	}
}

// newSensor builds the configured sensor and its cleanup.
func newSensor(cfg config.SensorConfig, log *logger.Logger) (service.Sensor, func(), error) {
	switch cfg.Driver {
	case "modbus":
		m, err := sensor.NewModbus(cfg.Modbus, log)
		if err != nil {
			return nil, nil, fmt.Errorf("modbus sensor: %w", err)
		}
		return m, func() {
			if err := m.Close(); err != nil {
				log.Warnw("modbus_close_failed", "err", err)
			}
		}, nil
	default:
		return sensor.NewSim(cfg.Sim, uint64(time.Now().UnixNano())), func() {}, nil
	}
}

// networkFactory returns a fresh stack per boot so a restart starts from a
// clean join.
func networkFactory(cfg config.NetworkConfig, log *logger.Logger) service.NetworkFactory {
	return func(context.Context) (service.NetworkStack, error) {
		if cfg.Driver == "sim" {
			return netlink.NewSim(cfg.Sim.ConnectAfter), nil
		}
		p, err := netlink.NewProbe(cfg.ProbeAddress, cfg.ProbeTimeout, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// runHTTPServer runs the debug console in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("debug_console_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Errorw("debug_console_failed", "err", err)
		}
	}()
}

// shutdownHTTPServer lets in-flight requests complete.
func shutdownHTTPServer(srv *server.Server, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("debug_console_forced_shutdown", "err", err)
	}
}
