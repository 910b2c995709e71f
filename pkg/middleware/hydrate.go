package middleware

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/vango-dev/dumbstore/pkg/hydrate"
	"github.com/vango-dev/dumbstore/pkg/store"
)

// HydrateConfig configures the Hydrate middleware.
type HydrateConfig struct {
	// Serializer produces the fragment. Built from the other fields when nil.
	Serializer *hydrate.Serializer

	// Recorder receives hydration metrics.
	Recorder hydrate.Recorder

	// Logger is used for failures (default: slog.Default()).
	Logger *slog.Logger
}

// HydrateOption configures the Hydrate middleware.
type HydrateOption func(*HydrateConfig)

// WithSerializer sets the serializer.
func WithSerializer(s *hydrate.Serializer) HydrateOption {
	return func(c *HydrateConfig) {
		c.Serializer = s
	}
}

// WithRecorder sets the metrics recorder for the default serializer.
func WithRecorder(r hydrate.Recorder) HydrateOption {
	return func(c *HydrateConfig) {
		c.Recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HydrateOption {
	return func(c *HydrateConfig) {
		c.Logger = logger
	}
}

// Hydrate buffers HTML responses and, once the handler returns, injects the
// request store's hydration fragment before </body>. Requests without a store
// and non-HTML responses pass through unchanged. If the store cannot be
// serialized the buffered page is dropped and the client gets a 500.
//
// Hydrate must run inside Store.
func Hydrate(opts ...HydrateOption) func(http.Handler) http.Handler {
	config := HydrateConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Serializer == nil {
		sopts := []hydrate.Option{hydrate.WithLogger(config.Logger)}
		if config.Recorder != nil {
			sopts = append(sopts, hydrate.WithRecorder(config.Recorder))
		}
		config.Serializer = hydrate.NewSerializer(sopts...)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := store.FromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(buf, r)

			body := buf.body.Bytes()
			if !isHTML(w.Header(), body) {
				buf.flush(body)
				return
			}

			fragment, err := config.Serializer.Serialize(r.Context(), s)
			if err != nil {
				config.Logger.Error("hydrate response",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
				)
				w.Header().Del("Content-Length")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			buf.flush(hydrate.Inject(body, fragment))
		})
	}
}

// bufferedWriter holds the status and body until the handler has finished.
type bufferedWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true
	b.status = code
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) flush(body []byte) {
	h := b.ResponseWriter.Header()
	if h.Get("Content-Length") != "" {
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}
	b.ResponseWriter.WriteHeader(b.status)
	_, _ = b.ResponseWriter.Write(body)
}

func isHTML(h http.Header, body []byte) bool {
	ct := h.Get("Content-Type")
	if ct == "" {
		if len(body) == 0 {
			return false
		}
		ct = http.DetectContentType(body)
		h.Set("Content-Type", ct)
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "text/html"
}
