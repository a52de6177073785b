package app

import (
	"context"
	"fmt"
	"net/http"

	"gexdash/config"
	"gexdash/internal/dashboard/controller"
	"gexdash/internal/dashboard/notify"
	"gexdash/internal/dashboard/scheduler"
	"gexdash/internal/dashboard/state"
	"gexdash/internal/dashboard/stream"
	"gexdash/internal/metrics"
	"gexdash/internal/server"
	"gexdash/pkg/gex"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App owns every long-running piece of the dashboard service.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	hub        *stream.Hub
	controller *controller.Controller
	scheduler  *scheduler.Scheduler
	server     *server.Server
	onCommand  func(msg []byte)
}

// New wires the dashboard: upstream client, controller, notification layer,
// websocket hub, scheduler and HTTP API.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		return nil, err
	}

	env := cfg.App.Environment
	var store config.ParameterStore
	if env == "prod" && cfg.Upstream.BaseURLParameter != "" {
		client, err := config.NewParameterStore(ctx, cfg.Upstream.AWSRegion)
		if err != nil {
			logger.Warn("parameter store unavailable, using upstream.base_url", zap.Error(err))
		} else {
			store = client
		}
	}
	baseURL := cfg.Upstream.ResolveBaseURL(ctx, env, store)
	restClient := gex.NewRESTClient(baseURL, cfg.Upstream.Timeout).WithPath(cfg.Upstream.Path)
	logger.Info("upstream resolved", zap.String("endpoint", restClient.Endpoint(gex.Query{})))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(reg)

	settings := state.NewSettings(
		cfg.Dashboard.AlertsEnabled,
		cfg.Dashboard.SpeechEnabled,
		cfg.Dashboard.WallProximityThreshold,
	)

	a := &App{cfg: cfg, logger: logger}

	// the hub and the controller refer to each other through these closures
	a.hub = stream.NewHub(logger.Named("stream"),
		func() stream.Message { return stream.Message{Type: stream.TypeState, Data: a.controller.View()} },
		func(msg []byte) { a.onCommand(msg) },
		recorder)
	publisher := stream.NewPublisher(a.hub)

	dispatcher := notify.NewDispatcher(publisher, settings, recorder, logger.Named("notify"))

	a.controller = controller.New(controller.Deps{
		Fetcher:   restClient,
		Sink:      publisher,
		Deliverer: dispatcher,
		Settings:  settings,
		Recorder:  recorder,
		Logger:    logger.Named("controller"),
	}, controller.Options{
		DefaultTicker: cfg.Dashboard.DefaultTicker,
		Location:      loc,
		FetchTimeout:  cfg.Dashboard.FetchTimeout,
		ManualRate:    cfg.Dashboard.ManualRefreshRate,
		ManualBurst:   cfg.Dashboard.ManualRefreshBurst,
	})

	a.onCommand = stream.MakeCommandHandler(logger.Named("stream"), a.controller, cfg.Dashboard.FetchTimeout)

	a.scheduler = scheduler.New(scheduler.RealClock, a.controller.Tick, logger.Named("scheduler"))
	a.controller.SetRearmer(a.scheduler)

	handler := server.NewHandler(a.controller, a.scheduler, settings, http.HandlerFunc(a.hub.ServeWS), logger.Named("http"))
	a.server = server.New(handler, reg, logger.Named("http"),
		server.WithHost(cfg.Server.Host),
		server.WithPort(cfg.Server.Port),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return a, nil
}

// Run serves until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	a.server.Start()

	// fetch once right away, then on the period
	go a.controller.Tick()
	a.scheduler.Start(a.cfg.Dashboard.RefreshRateMs)

	<-ctx.Done()
	a.logger.Info("shutting down")

	a.scheduler.Stop()
	if err := a.server.Stop(context.Background()); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}
