package metric

import (
	"io"

	"github.com/prometheus/common/expfmt"

	"github.com/c360/gqlwire/errors"
)

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (r *MetricsRegistry) WriteText(w io.Writer) error {
	families, err := r.prometheusRegistry.Gather()
	if err != nil {
		return errors.WrapTransient(err, "MetricsRegistry", "WriteText", "gather metrics")
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return errors.Wrap(err, "MetricsRegistry", "WriteText", "encode metric family")
		}
	}
	return nil
}
