package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modeld/internal/pool"
	"modeld/pkg/types"
)

// Service defines the methods the HTTP layer needs from a pool registry.
// The concrete implementation is *pool.Registry; this interface exists so
// handlers can be tested against a fake.
type Service interface {
	Submit(name, job string, data map[string]any) (pool.Result, error)
	StatusOne(name string) (types.PoolStatus, bool)
	Status() types.RegistryStatus
	ClosePool(name string) error
	OpenPool(name string) error
	DrainPool(name string) error
	ReloadPool(name string) error
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Route("/pools/{name}", func(r chi.Router) {
		r.Post("/jobs", submitHandler(svc))
		r.Get("/status", statusOneHandler(svc))
		r.Post("/close", lifecycleHandler(svc.ClosePool))
		r.Post("/open", lifecycleHandler(svc.OpenPool))
		r.Post("/drain", lifecycleHandler(svc.DrainPool))
		r.Post("/reload", lifecycleHandler(svc.ReloadPool))
	})

	r.Get("/status", statusAllHandler(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/docs/*", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	MountSwagger(r)

	return r
}

func submitHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var req types.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Job) == "" {
			writeJSONError(w, http.StatusBadRequest, "job is required")
			return
		}
		data, _ := req.Data.(map[string]any)

		start := time.Now()
		lvl := requestLogLevel(r)
		if lvl >= LevelInfo {
			logf("job start").Str("pool", name).Str("job", req.Job).Str("request_id", middleware.GetReqID(r.Context())).Send()
		}

		type outcome struct {
			res pool.Result
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := svc.Submit(name, req.Job, data)
			done <- outcome{res, err}
		}()

		var timeout <-chan time.Time
		if jobTimeout > 0 {
			timer := time.NewTimer(time.Duration(jobTimeout) * time.Second)
			defer timer.Stop()
			timeout = timer.C
		}

		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		select {
		case <-joinedCtx.Done():
			writeJSONError(w, http.StatusServiceUnavailable, "client disconnected or server shutting down")
		case <-timeout:
			writeJSONError(w, http.StatusGatewayTimeout, "job timed out waiting for a result")
			if lvl >= LevelInfo {
				logf("job end").Str("pool", name).Int("status", http.StatusGatewayTimeout).Dur("dur", time.Since(start)).Send()
			}
		case o := <-done:
			if o.err != nil {
				status, msg := mapPoolError(o.err)
				writeJSONError(w, status, msg)
				if lvl >= LevelInfo {
					logf("job end").Str("pool", name).Int("status", status).Dur("dur", time.Since(start)).Err(o.err).Send()
				}
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(types.SubmitResponse{
				HasError: o.res.HasError,
				Message:  o.res.Message,
				Value:    o.res.Value,
			})
			if lvl >= LevelInfo {
				logf("job end").Str("pool", name).Int("status", http.StatusOK).Dur("dur", time.Since(start)).Send()
			}
		}
	}
}

func statusOneHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		st, ok := svc.StatusOne(name)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "pool not found: "+name)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

func statusAllHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(svc.Status())
	}
}

func lifecycleHandler(op func(name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := op(name); err != nil {
			status, msg := mapPoolError(err)
			writeJSONError(w, status, msg)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// mapPoolError turns a pool.Is* sentinel into an HTTP status code, per the
// error taxonomy: admission rejections are transient (429), lifecycle
// conflicts are permanent until acted on (409), everything else is 500.
func mapPoolError(err error) (int, string) {
	switch {
	case pool.IsModelNotFound(err):
		return http.StatusNotFound, err.Error()
	case pool.IsQueueFull(err), pool.IsStartTimeout(err):
		return http.StatusTooManyRequests, err.Error()
	case pool.IsPoolDestroyed(err), pool.IsPoolClosed(err):
		return http.StatusConflict, err.Error()
	case pool.IsDrainingNotClosed(err), pool.IsStopBeforeDrain(err),
		pool.IsStartWithExistingThreads(err), pool.IsOpenNoThreads(err):
		return http.StatusConflict, err.Error()
	default:
		if he, ok := err.(HTTPError); ok {
			return he.StatusCode(), he.Error()
		}
		return http.StatusInternalServerError, err.Error()
	}
}
