package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func planCount(t *testing.T, plan string) float64 {
	t.Helper()
	return testutil.ToFloat64(QueryPlansTotal.WithLabelValues(plan))
}
