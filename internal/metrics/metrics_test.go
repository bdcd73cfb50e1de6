package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCollectionWrite(t *testing.T) {
	okBefore := testutil.ToFloat64(CollectionWrites.WithLabelValues("test_read", "ok"))
	errBefore := testutil.ToFloat64(CollectionWrites.WithLabelValues("test_read", "error"))

	RecordCollectionWrite("test_read", 3, nil)
	RecordCollectionWrite("test_read", 0, errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(CollectionWrites.WithLabelValues("test_read", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(CollectionWrites.WithLabelValues("test_read", "error")))
	assert.Equal(t, float64(3), testutil.ToFloat64(CollectionSize.WithLabelValues("test_read")))
}

func TestRecordCompletion(t *testing.T) {
	before := testutil.ToFloat64(CompletionRequests.WithLabelValues("ok"))
	RecordCompletion("ok", 150*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(CompletionRequests.WithLabelValues("ok")))
}

func TestRecordGeneration(t *testing.T) {
	statusBefore := testutil.ToFloat64(Generations.WithLabelValues("succeeded"))
	proposalsBefore := testutil.ToFloat64(ProposalsGenerated)

	RecordGeneration("succeeded", 4)
	RecordGeneration("succeeded", 0)

	assert.Equal(t, statusBefore+2, testutil.ToFloat64(Generations.WithLabelValues("succeeded")))
	assert.Equal(t, proposalsBefore+4, testutil.ToFloat64(ProposalsGenerated))
}

func TestTrackGeneration(t *testing.T) {
	before := testutil.ToFloat64(GenerationsInFlight)
	TrackGeneration(true)
	assert.Equal(t, before+1, testutil.ToFloat64(GenerationsInFlight))
	TrackGeneration(false)
	assert.Equal(t, before, testutil.ToFloat64(GenerationsInFlight))
}

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(ImportedBooks.WithLabelValues("cli"))
	RecordImport("cli", 7)
	assert.Equal(t, before+7, testutil.ToFloat64(ImportedBooks.WithLabelValues("cli")))
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("test-breaker", "closed", "open")
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")))

	RecordBreakerTransition("test-breaker", "open", "half-open")
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")))

	RecordBreakerTransition("test-breaker", "half-open", "closed")
	assert.Equal(t, float64(0), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("test-breaker", "closed", "open")))
}
