package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/dumbstore/internal/config"
	"github.com/vango-dev/dumbstore/pkg/live"
	"github.com/vango-dev/dumbstore/pkg/middleware"
	"github.com/vango-dev/dumbstore/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server",
		Long: `Run an HTTP server that renders pages from a per-request store and
embeds the store into every HTML response.

Examples:
  dumbstore serve
  dumbstore serve --config dumbstore.json --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			if configPath != "" {
				loaded, err := config.LoadFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success(cmd.OutOrStdout(), "Listening on http://%s", cfg.Address())
			return runServer(ctx, cfg, logger, prometheus.DefaultRegisterer)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to dumbstore.json")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) error {
	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           newRouter(cfg, logger, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter builds the server's routes. Pages get a store per request and are
// hydrated on the way out; the live endpoint and metrics sit outside that group.
func newRouter(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)))

	hydrateOpts := []middleware.HydrateOption{middleware.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		metrics := middleware.NewMetrics(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(reg),
		)
		hydrateOpts = append(hydrateOpts, middleware.WithRecorder(metrics))

		gatherer, ok := reg.(prometheus.Gatherer)
		if !ok {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.Live.Enabled {
		r.Handle(cfg.Live.Path, live.NewHandler(live.Config{
			Slot:   cfg.Slot,
			Logger: logger,
			Initial: func(r *http.Request) store.State {
				return store.State{"count": 0}
			},
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Store(store.WithSlot(cfg.Slot), store.WithLogger(logger)))
		r.Use(middleware.Hydrate(hydrateOpts...))
		r.Get("/", pageHandler(cfg))
	})

	return r
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>dumbstore</title>
</head>
<body>
  <h1>{{.Greeting}}</h1>
  <p>Request {{.RequestID}} rendered {{.Path}}.</p>
  <p>Count: <span id="count">0</span></p>
  <button id="inc">+1</button>
  <script>
    document.addEventListener("DOMContentLoaded", function () {
      var state = window[{{.Slot}}] || {};
      var count = document.getElementById("count");
      var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + {{.LivePath}});
      ws.onmessage = function (ev) {
        var msg = JSON.parse(ev.data);
        if (msg.state) { count.textContent = msg.state.count; }
      };
      document.getElementById("inc").onclick = function () {
        ws.send(JSON.stringify({set: {count: Number(count.textContent) + 1}}));
      };
      console.log("hydrated", state);
    });
  </script>
</body>
</html>
`))

type pageData struct {
	Greeting  string
	RequestID string
	Path      string
	Slot      string
	LivePath  string
}

func pageHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := store.MustFromContext(r.Context())
		s.Set(store.State{
			"greeting":  "hello",
			"path":      r.URL.Path,
			"requestId": chimw.GetReqID(r.Context()),
		})

		data := pageData{
			Greeting:  s.Get("greeting").(string),
			RequestID: chimw.GetReqID(r.Context()),
			Path:      r.URL.Path,
			Slot:      cfg.Slot,
			LivePath:  cfg.Live.Path,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
