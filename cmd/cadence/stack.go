package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/device/oto"
	"mercator-hq/cadence/pkg/engine"
	"mercator-hq/cadence/pkg/history"
	"mercator-hq/cadence/pkg/loader"
	"mercator-hq/cadence/pkg/telemetry/metrics"
	"mercator-hq/cadence/pkg/telemetry/tracing"
)

// stack is an engine together with the services it plays through and
// reports to. Every field except engine may be nil when disabled.
type stack struct {
	logger    *slog.Logger
	device    device.Device
	loader    loader.Loader
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	backend   history.Backend
	recorder  *history.Recorder
	scheduler *history.Scheduler
	engine    *engine.Engine
}

// newStack opens the device, loader and telemetry described by cfg and
// creates an engine with the configured banks and groups registered.
func newStack(ctx context.Context, cfg *config.Config, logger *slog.Logger) (s *stack, err error) {
	s = &stack{logger: logger}
	defer func() {
		if err != nil {
			s.close(context.Background())
		}
	}()

	if cfg.Telemetry.Metrics.Enabled {
		s.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	s.tracer, err = tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	s.device, err = openDevice(cfg.Device, logger)
	if err != nil {
		return nil, err
	}

	s.loader = loader.NewFileLoader(cfg.Loader,
		loader.WithTimeout(cfg.Engine.LoadTimeout),
		loader.WithRetries(cfg.Engine.LoadRetryCount),
		loader.WithLogger(logger),
		loader.WithMetrics(s.metrics),
	)

	opts := engine.OptionsFromConfig(cfg)
	opts.Logger = logger
	opts.Metrics = s.metrics
	opts.Tracer = s.tracer

	if cfg.History.Enabled {
		s.backend, err = history.Open(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		s.recorder = history.NewRecorder(s.backend, history.RecorderConfig{
			BufferSize: cfg.History.BufferSize,
		})
		opts.History = s.recorder

		s.scheduler = history.NewScheduler(s.backend, cfg.History.PruneSchedule, cfg.History.Retention)
		if err := s.scheduler.Start(ctx); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}

	s.engine, err = engine.New(s.device, s.loader, opts)
	if err != nil {
		return nil, err
	}
	if _, err := applyCatalog(s.engine, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func openDevice(cfg config.DeviceConfig, logger *slog.Logger) (device.Device, error) {
	switch cfg.Backend {
	case "", "headless":
		return device.NewHeadless(), nil
	case "oto":
		dev, err := oto.New(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open audio device: %w", err)
		}
		return dev, nil
	default:
		return nil, fmt.Errorf("unknown device backend %q", cfg.Backend)
	}
}

// close shuts everything down in reverse order of creation. The engine must
// not be running.
func (s *stack) close(ctx context.Context) error {
	var errs []error
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}
	if s.backend != nil {
		errs = append(errs, s.backend.Close())
	}
	if s.device != nil {
		errs = append(errs, s.device.Close())
	}
	if s.tracer != nil {
		errs = append(errs, s.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
