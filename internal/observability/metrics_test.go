package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestQueryVerb(t *testing.T) {
	assert.Equal(t, "select", queryVerb(`SELECT * FROM "posts"`))
	assert.Equal(t, "insert", queryVerb("  insert into users"))
	assert.Equal(t, "other", queryVerb("CREATE TABLE x"))
	assert.Equal(t, "unknown", queryVerb(""))
}

func TestObserveQuery_CountsFailures(t *testing.T) {
	before := testutil.ToFloat64(DatabaseQueryErrors.WithLabelValues("delete"))
	ObserveQuery("DELETE FROM posts", time.Millisecond, true)
	ObserveQuery("DELETE FROM posts", time.Millisecond, false)
	assert.Equal(t, before+1, testutil.ToFloat64(DatabaseQueryErrors.WithLabelValues("delete")))
}
