// healthsync/adapter_test.go
package healthsync

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/franckwan/foodlog/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type deleteCall struct {
	Type       NutrientType
	Start, End time.Time
}

// fakeSink records calls in arrival order.
type fakeSink struct {
	mu        sync.Mutex
	authErr   error
	writeErr  error
	deleteErr error
	writeLag  time.Duration

	authCalls int
	writes    [][]Sample
	deletes   []deleteCall
	ops       []string // "write" or "delete", in execution order
}

func (f *fakeSink) RequestAuthorization(read, write []NutrientType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	return f.authErr
}

func (f *fakeSink) WriteSamples(samples []Sample) error {
	if f.writeLag > 0 {
		time.Sleep(f.writeLag)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, samples)
	f.ops = append(f.ops, "write")
	return f.writeErr
}

func (f *fakeSink) DeleteSamples(t NutrientType, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteCall{Type: t, Start: start, End: end})
	f.ops = append(f.ops, "delete")
	return f.deleteErr
}

func (f *fakeSink) snapshotOps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func f64(v float64) *float64 { return &v }

func testMeal() *models.Meal {
	return &models.Meal{
		ID:       "meal-1",
		Name:     "apple",
		Calories: 95,
		Date:     time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC),
		Protein:  f64(0.5),
	}
}

func TestPropagateWritesOnlyPresentNutrients(t *testing.T) {
	sink := &fakeSink{}
	a := NewAdapter(sink, zap.NewNop())

	meal := testMeal()
	a.Propagate(meal)
	a.Wait()

	require.Len(t, sink.writes, 1)
	samples := sink.writes[0]
	require.Len(t, samples, 2)

	assert.Equal(t, EnergyConsumed, samples[0].Type)
	assert.Equal(t, 95.0, samples[0].Value)
	assert.Equal(t, Kilocalories, samples[0].Unit)
	assert.True(t, samples[0].Start.Equal(meal.Date))
	assert.True(t, samples[0].End.Equal(meal.Date))

	assert.Equal(t, Protein, samples[1].Type)
	assert.Equal(t, 0.5, samples[1].Value)
	assert.Equal(t, Grams, samples[1].Unit)
}

func TestRetractDeletesEveryTypeOverOneSecondWindow(t *testing.T) {
	sink := &fakeSink{}
	a := NewAdapter(sink, zap.NewNop())

	date := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	a.Retract(date)
	a.Wait()

	require.Len(t, sink.deletes, len(SupportedTypes))
	seen := make(map[NutrientType]bool)
	for _, d := range sink.deletes {
		seen[d.Type] = true
		assert.True(t, d.Start.Equal(date))
		assert.True(t, d.End.Equal(date.Add(time.Second)))
	}
	for _, st := range SupportedTypes {
		assert.True(t, seen[st.Type], "missing retract for %s", st.Type)
	}
}

func TestAuthorizationRequestedOnce(t *testing.T) {
	sink := &fakeSink{}
	a := NewAdapter(sink, zap.NewNop())

	a.Propagate(testMeal())
	a.Retract(testMeal().Date)
	a.Wait()

	assert.Equal(t, 1, sink.authCalls)
}

func TestUnavailableSinkMakesCallsNoOps(t *testing.T) {
	sink := &fakeSink{authErr: errors.New("denied")}
	a := NewAdapter(sink, zap.NewNop())

	a.Propagate(testMeal())
	a.Retract(testMeal().Date)
	a.Wait()

	assert.Empty(t, sink.writes)
	assert.Empty(t, sink.deletes)
}

func TestSameDateCallsRunInEnqueueOrder(t *testing.T) {
	sink := &fakeSink{writeLag: 10 * time.Millisecond}
	a := NewAdapter(sink, zap.NewNop())

	meal := testMeal()
	a.Propagate(meal)
	a.Retract(meal.Date)
	a.Propagate(meal)
	a.Wait()

	ops := sink.snapshotOps()
	require.Len(t, ops, 2+len(SupportedTypes))
	assert.Equal(t, "write", ops[0])
	for _, op := range ops[1 : 1+len(SupportedTypes)] {
		assert.Equal(t, "delete", op)
	}
	assert.Equal(t, "write", ops[len(ops)-1])
}

func TestWriteFailureIsLoggedNotRaised(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := &fakeSink{writeErr: errors.New("sink down")}
	a := NewAdapter(sink, zap.New(core))

	a.Propagate(testMeal())
	a.Wait()

	entries := logs.FilterMessage("failed to sync meal to health store").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "meal-1", entries[0].ContextMap()["meal_id"])
}

func TestDeleteFailureIsLoggedNotRaised(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := &fakeSink{deleteErr: errors.New("sink down")}
	a := NewAdapter(sink, zap.New(core))

	a.Retract(testMeal().Date)
	a.Wait()

	assert.Equal(t, len(SupportedTypes), logs.FilterMessage("failed to retract health samples").Len())
}
