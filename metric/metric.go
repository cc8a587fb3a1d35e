// Package metric provides Prometheus instrumentation for the annotation
// core: graph mutation and validation counters, and codec throughput
// and warning counters.
//
// Metrics are explicitly owned and explicitly registered - there is no
// package-level default registry side effect. Components accept a
// *Metrics and callers decide which prometheus.Registerer it lands on.
package metric

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/e-plus-healthcare-alliance/schemas/errors"
)

// Metrics holds the core instrument set.
type Metrics struct {
	// GraphInserts counts successful feature inserts.
	GraphInserts prometheus.Counter

	// GraphRemovals counts successful feature removals.
	GraphRemovals prometheus.Counter

	// GraphFeatures tracks the current number of features held.
	GraphFeatures prometheus.Gauge

	// GraphValidations counts Validate calls by result ("ok" or the
	// violation kind: "cycle", "dangling", "set_mismatch").
	GraphValidations *prometheus.CounterVec

	// EncodeTotal counts codec encodes by record kind.
	EncodeTotal *prometheus.CounterVec

	// DecodeTotal counts codec decodes by record kind and result
	// ("ok", "error").
	DecodeTotal *prometheus.CounterVec

	// DecodeWarnings counts unknown-kind attribute values dropped in
	// warn mode.
	DecodeWarnings prometheus.Counter
}

// NewMetrics creates the instrument set, unregistered.
func NewMetrics() *Metrics {
	return &Metrics{
		GraphInserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "annotation_graph_inserts_total",
			Help: "Successful feature inserts into a feature graph",
		}),
		GraphRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "annotation_graph_removals_total",
			Help: "Successful feature removals from a feature graph",
		}),
		GraphFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "annotation_graph_features",
			Help: "Features currently held by the feature graph",
		}),
		GraphValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_graph_validations_total",
			Help: "Feature graph validations by result",
		}, []string{"result"}),
		EncodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_codec_encodes_total",
			Help: "Codec encodes by record kind",
		}, []string{"kind"}),
		DecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_codec_decodes_total",
			Help: "Codec decodes by record kind and result",
		}, []string{"kind", "result"}),
		DecodeWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "annotation_codec_decode_warnings_total",
			Help: "Unknown-kind attribute values dropped during decode",
		}),
	}
}

// Register registers every instrument on reg.
// A prometheus duplicate-registration conflict is reported invalid;
// any other registration failure is fatal.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.GraphInserts,
		m.GraphRemovals,
		m.GraphFeatures,
		m.GraphValidations,
		m.EncodeTotal,
		m.DecodeTotal,
		m.DecodeWarnings,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var alreadyRegErr prometheus.AlreadyRegisteredError
			if stderrors.As(err, &alreadyRegErr) {
				return errors.WrapInvalid(err, "Metrics", "Register", "duplicate metric registration")
			}
			return errors.WrapFatal(err, "Metrics", "Register", "register collector")
		}
	}
	return nil
}
