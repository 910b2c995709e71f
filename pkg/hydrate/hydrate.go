package hydrate

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dumbstore/internal/errors"
	"github.com/vango-dev/dumbstore/pkg/store"
)

const tracerName = "github.com/vango-dev/dumbstore/pkg/hydrate"

var (
	// ErrSerialization matches errors returned when the state holds a value
	// that cannot be encoded as JSON.
	ErrSerialization = errors.New("E040")

	// ErrPayload matches errors returned by Execute for malformed payloads.
	ErrPayload = errors.New("E041")
)

// Recorder receives the outcome of each serialization.
type Recorder interface {
	ObserveHydration(keys, bytes int, err error)
}

// Serializer turns stores into hydration fragments.
type Serializer struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithTracer sets the tracer used for serialization spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Serializer) {
		s.tracer = tracer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// WithRecorder sets a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Serializer) {
		s.recorder = r
	}
}

// NewSerializer creates a Serializer. Spans go to the global tracer provider
// unless WithTracer is given.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Serialize uses a default Serializer.
func Serialize(st *store.Store) (template.HTML, error) {
	return NewSerializer().Serialize(context.Background(), st)
}

// Serialize snapshots st, encodes it into a script fragment and resets st.
//
// If the state cannot be encoded the error matches ErrSerialization and st is
// left untouched.
func (s *Serializer) Serialize(ctx context.Context, st *store.Store) (template.HTML, error) {
	_, span := s.tracer.Start(ctx, "hydrate.Serialize")
	defer span.End()

	state := st.All()
	span.SetAttributes(
		attribute.String("dumbstore.slot", st.Slot()),
		attribute.Int("dumbstore.keys", len(state)),
	)

	data, err := json.Marshal(state)
	if err != nil {
		serr := errors.New("E040").
			Wrap(err).
			WithSuggestion("Store only JSON values: no funcs, channels or cyclic structures")
		span.RecordError(serr)
		span.SetStatus(codes.Error, serr.Message)
		s.logger.Error("hydration failed", "slot", st.Slot(), "keys", len(state), "error", err)
		s.observe(len(state), 0, serr)
		return "", serr
	}

	fragment := script(st.Slot(), data)
	st.Reset()

	span.SetAttributes(attribute.Int("dumbstore.bytes", len(fragment)))
	s.logger.Debug("hydration serialized", "slot", st.Slot(), "keys", len(state), "bytes", len(fragment))
	s.observe(len(state), len(fragment), nil)

	return template.HTML(fragment), nil
}

func (s *Serializer) observe(keys, n int, err error) {
	if s.recorder != nil {
		s.recorder.ObserveHydration(keys, n, err)
	}
}

// script builds the element body. The slot name goes through json.Marshal so
// it is a valid, HTML-safe JavaScript string literal.
func script(slot string, data []byte) string {
	name, _ := json.Marshal(slot)

	var b bytes.Buffer
	b.Grow(len(data) + len(name) + 32)
	b.WriteString("<script>window[")
	b.Write(name)
	b.WriteString("] = ")
	b.Write(data)
	b.WriteString("</script>")
	return b.String()
}

// Inject inserts fragment before the last </body> in doc, or appends it when
// doc has no closing body tag. doc need not be valid UTF-8.
func Inject(doc []byte, fragment template.HTML) []byte {
	out := make([]byte, 0, len(doc)+len(fragment))

	idx := lastBodyClose(doc)
	if idx < 0 {
		out = append(out, doc...)
		return append(out, fragment...)
	}

	out = append(out, doc[:idx]...)
	out = append(out, fragment...)
	return append(out, doc[idx:]...)
}

var bodyClose = []byte("</body>")

// lastBodyClose returns the offset of the last ASCII case-insensitive
// "</body>" in doc, or -1. Offsets always refer to doc itself.
func lastBodyClose(doc []byte) int {
	for i := len(doc) - len(bodyClose); i >= 0; i-- {
		if doc[i] == '<' && bytes.EqualFold(doc[i:i+len(bodyClose)], bodyClose) {
			return i
		}
	}
	return -1
}
