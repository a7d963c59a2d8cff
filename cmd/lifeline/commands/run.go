package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/lifeline/internal/logger"
	"github.com/marmos91/lifeline/internal/telemetry"
	"github.com/marmos91/lifeline/pkg/api"
	"github.com/marmos91/lifeline/pkg/config"
	"github.com/marmos91/lifeline/pkg/lifecycle"
	"github.com/marmos91/lifeline/pkg/metrics"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/lifeline/pkg/metrics/prometheus"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lifeline host",
	Long: `Run the lifeline host until a shutdown signal arrives.

The host initializes its registered steps in order, serves the health and
status API as its workload, and on SIGINT/SIGTERM tears the steps down in
reverse order under the configured teardown timeout.

Examples:
  # Run with default config location
  lifeline run

  # Run with custom config file
  lifeline run --config /etc/lifeline/config.yaml

  # Run with environment variable overrides
  LIFELINE_LOGGING_LEVEL=DEBUG lifeline run`,
	RunE: runHost,
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// The signal context is the run's shutdown trigger: cancellation moves
	// the host from Running to Stopping. Teardown detaches from it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "lifeline",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "lifeline",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Watch the config file for log level changes while the host runs
	if source := getConfigSource(GetConfigFile()); source != "defaults" {
		config.NewWatcher(source).Start()
	}

	// Initialize metrics before building steps so the lifecycle
	// instrumentation binds to a live registry
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	reg := lifecycle.NewRegistry()
	if metrics.IsEnabled() {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Server.Port)
		reg.AddStep(newMetricsStep(cfg.Metrics.Server))
	} else {
		logger.Info("Metrics collection disabled")
	}

	probe := &hostProbe{}

	var workload lifecycle.Workload
	if cfg.API.IsEnabled() {
		logger.Info("API server enabled", "port", cfg.API.Port)
		workload = lifecycle.NewServerWorkload(api.NewServer(cfg.API, probe))
	} else {
		logger.Info("API server disabled, running headless")
		workload = idleWorkload{}
	}

	host := lifecycle.New(reg, workload,
		lifecycle.WithTeardownTimeout(cfg.Lifecycle.TeardownTimeout),
		lifecycle.WithMetrics(metrics.NewLifecycleMetrics()),
	)
	probe.attach(host)

	logger.Info("Host is running. Press Ctrl+C to stop.")

	if err := host.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Host stopped after shutdown signal", "state", host.State())
			return nil
		}
		return fmt.Errorf("host run failed: %w", err)
	}

	logger.Info("Host stopped gracefully", "state", host.State())
	return nil
}

// hostProbe exposes the orchestrator's state to the API server. The API
// server is constructed before the orchestrator (it is the workload the
// orchestrator runs), so the probe is attached late.
type hostProbe struct {
	host atomic.Pointer[lifecycle.Orchestrator]
}

func (p *hostProbe) attach(host *lifecycle.Orchestrator) {
	p.host.Store(host)
}

func (p *hostProbe) State() lifecycle.State {
	if host := p.host.Load(); host != nil {
		return host.State()
	}
	return lifecycle.StateNotStarted
}

// idleWorkload keeps a headless host alive until the run context is
// cancelled.
type idleWorkload struct{}

func (idleWorkload) Start(context.Context) error { return nil }

func (idleWorkload) WaitForShutdown(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (idleWorkload) Close(context.Context) error { return nil }

// metricsStep runs the Prometheus /metrics listener as a lifecycle step: it
// comes up before the workload and is torn down after it, so metrics cover
// the whole run.
type metricsStep struct {
	cfg    metrics.ServerConfig
	srv    *metrics.Server
	cancel context.CancelFunc
	group  *errgroup.Group
}

func newMetricsStep(cfg metrics.ServerConfig) *metricsStep {
	return &metricsStep{cfg: cfg}
}

func (s *metricsStep) Name() string { return "metrics-server" }

func (s *metricsStep) Init(ctx context.Context) error {
	srv, err := metrics.NewServer(s.cfg)
	if err != nil {
		return err
	}
	s.srv = srv

	// The listener outlives the init phase, so it runs on a context
	// detached from the phase context
	srvCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	group, groupCtx := errgroup.WithContext(srvCtx)
	s.group = group
	group.Go(func() error {
		return srv.Start(groupCtx)
	})
	return nil
}

func (s *metricsStep) Teardown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	stopErr := s.srv.Stop(ctx)
	s.cancel()
	waitErr := s.group.Wait()
	return errors.Join(stopErr, waitErr)
}
