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

	"github.com/EchoPBX/activity-gateway/internal/activity"
	"github.com/EchoPBX/activity-gateway/internal/config"
	"github.com/EchoPBX/activity-gateway/internal/events"
	"github.com/EchoPBX/activity-gateway/internal/httpserver"
	"github.com/EchoPBX/activity-gateway/internal/logging"
	"github.com/EchoPBX/activity-gateway/internal/metrics"
	"github.com/EchoPBX/activity-gateway/internal/reloader"
	"github.com/EchoPBX/activity-gateway/internal/simulator"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("ACTIVITY_CONFIG")
	if cfgPath == "" {
		cfgPath = "/etc/activity-gateway/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		panic(err)
	}

	logger, level := logging.New(logging.Cfg{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.JSON,
	})
	defer logger.Sync()

	fmt.Println(`
Activity Gateway: user action event aggregator
-----------------------------------------------
Config:  ` + cfgPath + `
`)

	bus := activity.NewBus()
	feed := events.NewFeed[activity.Update](cfg.Stream.Buffer)
	agg := activity.NewAggregator(
		activity.WithLogger(logger.Named("aggregator")),
		activity.WithFeed(feed),
	)
	agg.Attach(bus)
	m := metrics.New(agg.Len)
	m.Attach(bus)
	for _, k := range activity.Kinds() {
		logger.Debug("subscribed", zap.Stringer("kind", k), zap.Int("handlers", bus.Handlers(k)))
	}

	srv := httpserver.New(cfg, logger.Named("http"), bus, agg, feed, m)
	sim := simulator.New(cfg, logger.Named("simulator"), bus)

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Simulator.Enabled {
		go sim.Run(ctx)
	}

	// Hot reload on SIGHUP
	reloader.OnSIGHUP(ctx, func() {
		newCfg, err := config.Load(cfgPath)
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			return
		}
		if !logging.SetLevel(level, newCfg.Logging.Level) {
			logger.Warn("invalid log level", zap.String("level", newCfg.Logging.Level))
		}
		sim.Reload(newCfg)
		logger.Info("reloaded config", zap.String("level", level.String()))
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", httpSrv.Addr), zap.Bool("tls", cfg.HTTP.TLS.Enabled))
		if cfg.HTTP.TLS.Enabled {
			if err := httpSrv.ListenAndServeTLS(cfg.HTTP.TLS.Cert, cfg.HTTP.TLS.Key); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("http tls", zap.Error(err))
			}
		} else {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("http", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down...")
	cancel()

	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	sum := agg.Summary()
	for _, line := range sum.Lines() {
		logger.Info(line)
	}
	logger.Info("events recorded", zap.Int("total", sum.Total()))
	logger.Info("bye")
}
