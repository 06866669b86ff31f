package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"modeld/internal/broker"
	"modeld/internal/config"
	"modeld/internal/httpapi"
	"modeld/internal/mesh"
	"modeld/internal/pool"
	"modeld/internal/poolmetrics"
	"modeld/internal/registry"
	"modeld/internal/router"
	"modeld/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "Path to a .yaml/.json/.toml config file")
	flag.Parse()

	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("poold: failed to load configuration")
	}

	zlog := zerolog.New(os.Stderr).Level(logLevel(cfg.LogLevel)).With().Timestamp().Logger()
	httpapi.SetLogger(zlog)

	specs, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		zlog.Fatal().Err(err).Str("models_dir", cfg.ModelsDir).Msg("poold: failed to load model specs")
	}

	br := broker.New()
	br.SetLogger(&zlog)

	var meshPublisher router.MeshPublisher
	var uplink *mesh.Uplink
	if cfg.WebswitchEnabled {
		uplink = mesh.New(cfg.WebswitchServer,
			mesh.WithReconnectObserver(func() { poolmetrics.MeshReconnectsTotal.WithLabelValues().Inc() }),
		)
		uplink.SetLogger(&zlog)
		uplink.OnMessage(func(ev mesh.Event) {
			msg := map[string]any(ev)
			name, _ := msg["eventName"].(string)
			if name == "" {
				br.Notify(router.EventMissingEventName, msg)
				return
			}
			br.Notify(name, msg)
		})
		meshPublisher = uplink
	}

	rt := router.New(br, meshPublisher)
	rt.SetLogger(&zlog)

	reg := pool.NewRegistry()
	isLocal := buildPools(reg, specs, cfg, br, &zlog)
	rt.Wire(specs, isLocal)

	stopMetrics := make(chan struct{})
	go observeMetricsLoop(reg, stopMetrics)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(reg)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		zlog.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("poold: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("poold: server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancelBase()
	close(stopMetrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("poold: graceful shutdown error")
	}
	if uplink != nil {
		_ = uplink.Close()
	}
	for _, name := range reg.Names() {
		reg.Destroy(name)
	}
}

// brokerPublisher adapts the broker as a pool.EventPublisher, the bridge
// between a Worker's job-produced or lifecycle events and the router's
// broker.On subscriptions.
type brokerPublisher struct {
	broker *broker.Broker
}

func (b brokerPublisher) Publish(e pool.Event) {
	b.broker.Notify(e.Name, e.Fields)
}

// buildPools constructs a Pool for every spec, wiring each one's
// EventPublisher to the broker so job-produced and lifecycle events reach
// the router. It returns an isLocal predicate over every model this process
// hosts, for router.Wire's classification step.
func buildPools(reg *pool.Registry, specs []types.ModelSpec, cfg config.Config, br *broker.Broker, zlog *zerolog.Logger) func(string) bool {
	local := make(map[string]bool, len(specs))
	for _, spec := range specs {
		local[spec.ID] = true
		pcfg := pool.Config{
			Name:           spec.ID,
			File:           spec.File,
			WorkerData:     spec.WorkerData,
			Min:            orInt(spec.Min, cfg.Pool.Min),
			Max:            orInt(spec.Max, cfg.Pool.Max),
			QueueTolerance: orInt(spec.QueueTolerance, cfg.Pool.QueueTolerance),
			Publisher:      brokerPublisher{broker: br},
			Logger:         zlog,
		}
		preload := spec.Preload || cfg.Pool.Preload
		if preload {
			reg.GetThreadPool(spec.ID, pcfg, true)
		} else {
			reg.Register(spec.ID, pcfg)
		}
	}
	return func(model string) bool { return local[model] }
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func logLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "error":
		return zerolog.ErrorLevel
	case "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func observeMetricsLoop(reg *pool.Registry, stop <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.ObserveMetrics()
		case <-stop:
			return
		}
	}
}
