// Package codec provides schema-evolution-aware serialization for
// annotation records.
//
// Every record travels inside an Envelope: a self-describing wire form
// carrying an explicit record kind tag next to the record body. The
// kind is never inferred from the body's shape - feature sets, wiggles
// and attribute values are all string-shaped and structurally
// ambiguous. Decoding looks the kind up in a Registry of record
// factories, mirroring how typed payloads are reconstructed from a
// payload registry.
//
// Evolution guarantees:
//   - optional fields absent from older encodings decode to nil
//     pointers and re-encode as omitted, never as empty strings;
//   - unknown envelope fields from newer encodings are ignored without
//     failing the known fields;
//   - unknown attribute-value kinds are preserved opaquely or dropped
//     with a recorded warning, per the decoder's unknown-field mode.
package codec

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/e-plus-healthcare-alliance/schemas/annotation"
	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/metric"
)

// Kind identifies a record type on the wire: domain, category and
// schema version. The version component is what makes additive schema
// evolution explicit.
type Kind struct {
	// Domain identifies the record family (always "annotation" here).
	Domain string

	// Category identifies the record type within the domain.
	Category string

	// Version identifies the schema version ("v1", "v2", ...).
	Version string
}

// Key returns the dotted notation representation: "domain.category.version"
func (k Kind) Key() string {
	return fmt.Sprintf("%s.%s.%s", k.Domain, k.Category, k.Version)
}

// String returns the same as Key()
func (k Kind) String() string {
	return k.Key()
}

// IsValid checks if the Kind has all components populated.
func (k Kind) IsValid() bool {
	return k.Domain != "" && k.Category != "" && k.Version != ""
}

// ParseKind creates a Kind from dotted string format.
// Expects exactly 3 non-empty parts: domain.category.version.
func ParseKind(s string) (Kind, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Kind{}, errors.WrapDecode(errors.ErrBadUnionTag, "Kind", "ParseKind",
			fmt.Sprintf("expected 3 parts, got %d", len(parts)))
	}
	for i, part := range parts {
		if part == "" {
			return Kind{}, errors.WrapDecode(errors.ErrBadUnionTag, "Kind", "ParseKind",
				fmt.Sprintf("part %d is empty", i+1))
		}
	}
	return Kind{Domain: parts[0], Category: parts[1], Version: parts[2]}, nil
}

// Record kinds for the core annotation types.
var (
	KindFeature    = Kind{Domain: "annotation", Category: "Feature", Version: "v1"}
	KindFeatureSet = Kind{Domain: "annotation", Category: "FeatureSet", Version: "v1"}
	KindWiggle     = Kind{Domain: "annotation", Category: "Wiggle", Version: "v1"}
	KindWiggleSet  = Kind{Domain: "annotation", Category: "WiggleSet", Version: "v1"}
)

// Record is the contract every encodable annotation record satisfies.
// The concrete types provide their own JSON wire forms; the codec
// contributes the envelope, the kind tag and the evolution policy.
type Record interface {
	Validate() error
}

// Registration holds the factory and metadata for one record kind.
type Registration struct {
	Kind        Kind
	Description string
	Factory     func() Record
}

// Registry manages record factories for envelope decoding. It is safe
// for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byKind map[string]*Registration
	byType map[reflect.Type]Kind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[string]*Registration),
		byType: make(map[reflect.Type]Kind),
	}
}

// Register adds a record kind with validation.
// Returns an error when the registration is incomplete or the kind is
// already registered.
func (r *Registry) Register(reg *Registration) error {
	if reg == nil || reg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "registration validation")
	}
	if !reg.Kind.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "kind validation")
	}

	key := reg.Kind.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKind[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("record kind %q is already registered", key),
			"Registry", "Register", "duplicate kind check")
	}

	r.byKind[key] = reg
	r.byType[reflect.TypeOf(reg.Factory())] = reg.Kind
	return nil
}

// Create returns a fresh record instance for kind, or nil when the
// kind is not registered. A nil return lets the decoder report
// ErrUnknownKind instead of guessing a shape.
func (r *Registry) Create(kind Kind) Record {
	r.mu.RLock()
	reg, exists := r.byKind[kind.Key()]
	r.mu.RUnlock()

	if !exists {
		return nil
	}
	return reg.Factory()
}

// KindOf returns the registered kind for a record's concrete type.
func (r *Registry) KindOf(rec Record) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.byType[reflect.TypeOf(rec)]
	return kind, ok
}

// Kinds returns the keys of all registered kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.byKind))
	for key := range r.byKind {
		kinds = append(kinds, key)
	}
	return kinds
}

// defaultRegistry carries the four core record kinds.
var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	registrations := []*Registration{
		{Kind: KindFeature, Description: "Discrete ontology-typed annotation node",
			Factory: func() Record { return &annotation.Feature{} }},
		{Kind: KindFeatureSet, Description: "Named collection of features in one coordinate space",
			Factory: func() Record { return &annotation.FeatureSet{} }},
		{Kind: KindWiggle, Description: "Continuous binned signal over a region",
			Factory: func() Record { return &annotation.Wiggle{} }},
		{Kind: KindWiggleSet, Description: "Named collection of wiggle tracks",
			Factory: func() Record { return &annotation.WiggleSet{} }},
	}
	for _, reg := range registrations {
		if err := r.Register(reg); err != nil {
			panic("codec: default registry: " + err.Error())
		}
	}
	return r
}

// DefaultRegistry returns the registry holding the core record kinds.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// envelopeWire is the JSON wire format of the envelope.
type envelopeWire struct {
	ID     string          `json:"id"`
	Kind   string          `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// UnknownFieldMode selects what happens to unknown attribute-value
// kinds encountered while decoding data from a future schema version.
type UnknownFieldMode int

const (
	// PreserveUnknown keeps unknown-kind values opaquely so they
	// re-encode unchanged. This is the default: round-tripping a
	// future encoding through this library loses nothing.
	PreserveUnknown UnknownFieldMode = iota

	// DropUnknownWithWarning removes unknown-kind values and records a
	// warning (log line and metric). Known fields are untouched.
	DropUnknownWithWarning
)

// Encoder serializes records into envelopes.
type Encoder struct {
	registry *Registry
	metrics  *metric.Metrics
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithEncoderRegistry replaces the default record registry.
func WithEncoderRegistry(r *Registry) EncoderOption {
	return func(e *Encoder) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithEncoderMetrics enables Prometheus instrumentation of encodes.
func WithEncoderMetrics(m *metric.Metrics) EncoderOption {
	return func(e *Encoder) {
		e.metrics = m
	}
}

// NewEncoder creates an encoder over the default registry.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{registry: defaultRegistry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode validates rec and wraps it in an envelope tagged with its
// registered kind.
func (e *Encoder) Encode(rec Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingRequired, "Encoder", "Encode", "record is nil")
	}

	kind, ok := e.registry.KindOf(rec)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownKind, "Encoder", "Encode",
			fmt.Sprintf("unregistered record type %T", rec))
	}

	if err := rec.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Encoder", "Encode", "record validation")
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Encoder", "Encode", "marshal record")
	}

	data, err := json.Marshal(envelopeWire{
		ID:     uuid.New().String(),
		Kind:   kind.Key(),
		Record: body,
	})
	if err != nil {
		return nil, errors.WrapInvalid(err, "Encoder", "Encode", "marshal envelope")
	}

	if e.metrics != nil {
		e.metrics.EncodeTotal.WithLabelValues(kind.Key()).Inc()
	}
	return data, nil
}

// Decoder reconstructs typed records from envelopes.
type Decoder struct {
	registry       *Registry
	mode           UnknownFieldMode
	validateSchema bool
	logger         *slog.Logger
	metrics        *metric.Metrics
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithDecoderRegistry replaces the default record registry.
func WithDecoderRegistry(r *Registry) DecoderOption {
	return func(d *Decoder) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithUnknownFieldMode selects the unknown-field policy.
func WithUnknownFieldMode(mode UnknownFieldMode) DecoderOption {
	return func(d *Decoder) {
		d.mode = mode
	}
}

// WithSchemaValidation validates the envelope against the embedded
// JSON Schema before decoding, turning shape errors into decode errors
// with precise sub-reasons.
func WithSchemaValidation() DecoderOption {
	return func(d *Decoder) {
		d.validateSchema = true
	}
}

// WithDecoderLogger sets the logger used for decode warnings.
func WithDecoderLogger(logger *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDecoderMetrics enables Prometheus instrumentation of decodes.
func WithDecoderMetrics(m *metric.Metrics) DecoderOption {
	return func(d *Decoder) {
		d.metrics = m
	}
}

// NewDecoder creates a decoder over the default registry in
// PreserveUnknown mode.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		registry: defaultRegistry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reconstructs the typed record carried by an envelope.
//
// A failed decode never returns a partially populated record: the
// record is built in full or the error alone is returned. Unknown
// trailing envelope fields (from an additive future version) are
// ignored without failing the known fields.
func (d *Decoder) Decode(data []byte) (Record, error) {
	fail := func(sub error, detail string) (Record, error) {
		if d.metrics != nil {
			d.metrics.DecodeTotal.WithLabelValues("unknown", "error").Inc()
		}
		return nil, errors.WrapDecode(sub, "Decoder", "Decode", detail)
	}

	if d.validateSchema {
		if err := validateEnvelope(data); err != nil {
			return fail(errors.ErrTruncated, err.Error())
		}
	}

	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fail(errors.ErrTruncated, err.Error())
	}
	if wire.Kind == "" {
		return fail(errors.ErrMissingRequired, "envelope kind absent")
	}
	if len(wire.Record) == 0 {
		return fail(errors.ErrMissingRequired, "envelope record absent")
	}

	kind, err := ParseKind(wire.Kind)
	if err != nil {
		return nil, err
	}

	rec := d.registry.Create(kind)
	if rec == nil {
		return fail(errors.ErrUnknownKind, fmt.Sprintf("kind %q", wire.Kind))
	}

	if err := json.Unmarshal(wire.Record, rec); err != nil {
		if d.metrics != nil {
			d.metrics.DecodeTotal.WithLabelValues(kind.Key(), "error").Inc()
		}
		// Attribute-level decode errors are already classified with
		// their own sub-reason; pass them through untouched.
		if errors.IsInvalid(err) {
			return nil, err
		}
		return nil, errors.WrapDecode(errors.ErrTruncated, "Decoder", "Decode", err.Error())
	}

	if err := rec.Validate(); err != nil {
		if d.metrics != nil {
			d.metrics.DecodeTotal.WithLabelValues(kind.Key(), "error").Inc()
		}
		// Keep the validation error as the sub-reason so errors.Is
		// reports the true kind (missing field, invalid region, ...).
		return nil, errors.WrapDecode(err, "Decoder", "Decode", "record validation")
	}

	if d.mode == DropUnknownWithWarning {
		if dropped := dropOpaqueValues(rec); dropped > 0 {
			d.logger.Warn("dropped unknown attribute values during decode",
				"kind", kind.Key(),
				"dropped", dropped)
			if d.metrics != nil {
				d.metrics.DecodeWarnings.Add(float64(dropped))
			}
		}
	}

	if d.metrics != nil {
		d.metrics.DecodeTotal.WithLabelValues(kind.Key(), "ok").Inc()
	}
	return rec, nil
}

// dropOpaqueValues strips unknown-kind attribute values from the core
// record types. Record kinds registered by callers are left untouched;
// they own their own evolution policy.
func dropOpaqueValues(rec Record) int {
	switch r := rec.(type) {
	case *annotation.Feature:
		return r.Attributes.DropOpaque()
	case *annotation.FeatureSet:
		return r.Attributes.DropOpaque()
	case *annotation.Wiggle:
		return r.Attributes.DropOpaque()
	case *annotation.WiggleSet:
		return r.Attributes.DropOpaque()
	default:
		return 0
	}
}

// Encode serializes rec with a default encoder.
func Encode(rec Record) ([]byte, error) {
	return NewEncoder().Encode(rec)
}

// Decode reconstructs a record with a default decoder.
func Decode(data []byte) (Record, error) {
	return NewDecoder().Decode(data)
}
