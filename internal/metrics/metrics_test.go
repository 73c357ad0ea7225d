package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordRefresh(t *testing.T) {
	before := testutil.ToFloat64(RefreshRuns.WithLabelValues(StatusEmpty))
	RecordRefresh(StatusEmpty, 0.25)
	require.Equal(t, before+1, testutil.ToFloat64(RefreshRuns.WithLabelValues(StatusEmpty)))
}

func TestRecordBlog(t *testing.T) {
	before := testutil.ToFloat64(BlogOperations.WithLabelValues("delete", "ok"))
	RecordBlog("delete", "ok")
	require.Equal(t, before+1, testutil.ToFloat64(BlogOperations.WithLabelValues("delete", "ok")))
}
