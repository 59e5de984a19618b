package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeropenalty/riskzone/internal/engine"
	"github.com/zeropenalty/riskzone/internal/zonestore"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the risk-zone evaluation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		env, err := initEngine(ctx, reg)
		if err != nil {
			return err
		}
		defer env.Close()

		// Auto-reload on zone file changes. Only the file driver has a path
		// to watch; database drivers reload through the API.
		if cfg.Zones.Watch && (cfg.Zones.Driver == "" || cfg.Zones.Driver == "file") {
			watcher, err := zonestore.NewWatcher(cfg.Zones.Path, 0)
			if err != nil {
				zap.L().Warn("zone watcher unavailable", zap.Error(err))
			} else {
				go func() {
					_ = watcher.Watch(ctx, func() error {
						_, err := env.Engine.ReloadZones(ctx)
						return err
					})
				}()
			}
		}

		r := chi.NewRouter()
		r.Use(middleware.RealIP)
		r.Use(requestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", handleHealth(env))
		r.Get("/zone", handleZone(env))
		r.Get("/time-risk", handleTimeRisk(env))
		r.Post("/reload-zones", handleReloadZones(env))
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// requestID tags every request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, id)))
	})
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": message})
}

func handleHealth(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]any{
			"service":      "riskzone",
			"version":      appVersion,
			"zones_loaded": env.Engine.ZonesLoaded(),
		})
	}
}

func handleZone(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		lat, err := strconv.ParseFloat(q.Get("lat"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lat is required and must be a number")
			return
		}
		lng, err := strconv.ParseFloat(q.Get("lng"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lng is required and must be a number")
			return
		}
		speed := 0.0
		if raw := q.Get("speed"); raw != "" {
			speed, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "speed must be a number")
				return
			}
		}
		dynamic := true
		if raw := q.Get("dynamic"); raw != "" {
			dynamic, err = strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "dynamic must be a boolean")
				return
			}
		}

		result, err := env.Engine.Evaluate(r.Context(), engine.Request{
			Latitude:  lat,
			Longitude: lng,
			SpeedKmh:  speed,
			Dynamic:   dynamic,
		})
		if err != nil {
			var ve *engine.ValidationError
			switch {
			case errors.As(err, &ve):
				writeError(w, http.StatusBadRequest, ve.Error())
			case errors.Is(err, engine.ErrServiceUnavailable):
				writeError(w, http.StatusServiceUnavailable, "zone database unavailable")
			default:
				zap.L().Error("zone evaluation failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeSuccess(w, http.StatusOK, result)
	}
}

func handleTimeRisk(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, env.Engine.CurrentTimeRisk())
	}
}

func handleReloadZones(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := env.Engine.ReloadZones(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "zone reload failed")
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"zones_loaded": count})
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
