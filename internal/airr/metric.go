// SPDX-License-Identifier: MIT

package airr

import (
	"fmt"
	"strings"

	"github.com/airrkit/airrspec/internal/normalize"
)

// Metric names a classification performance metric that can be requested for
// model assessment. The tool validates and carries metric names; it never
// computes them.
type Metric string

const (
	MetricAccuracy         Metric = "accuracy"
	MetricBalancedAccuracy Metric = "balanced_accuracy"
	MetricPrecision        Metric = "precision"
	MetricRecall           Metric = "recall"
	MetricF1Micro          Metric = "f1_micro"
	MetricF1Macro          Metric = "f1_macro"
	MetricF1Weighted       Metric = "f1_weighted"
	MetricAUC              Metric = "auc"
	MetricLogLoss          Metric = "log_loss"
)

// Metrics lists all valid metric values.
func Metrics() []string {
	return []string{
		string(MetricAccuracy),
		string(MetricBalancedAccuracy),
		string(MetricPrecision),
		string(MetricRecall),
		string(MetricF1Micro),
		string(MetricF1Macro),
		string(MetricF1Weighted),
		string(MetricAUC),
		string(MetricLogLoss),
	}
}

// IsValid checks if the metric is valid
func (m Metric) IsValid() bool {
	switch m {
	case MetricAccuracy, MetricBalancedAccuracy, MetricPrecision, MetricRecall,
		MetricF1Micro, MetricF1Macro, MetricF1Weighted, MetricAUC, MetricLogLoss:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (m Metric) String() string {
	return string(m)
}

// ParseMetric parses a string into a Metric, ignoring case.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(normalize.Token(raw))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown metric %q (allowed: %s)", raw, strings.Join(Metrics(), ", "))
	}
	return m, nil
}
