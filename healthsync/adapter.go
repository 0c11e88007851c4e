// healthsync/adapter.go
package healthsync

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/franckwan/foodlog/models"
)

// retractWindow bounds how far past a meal's date a retract reaches. Kept
// narrow so adjacent meals sharing the external timeline are left alone.
const retractWindow = time.Second

// Adapter mirrors meal nutrients into an external health store. Writes are
// best effort: failures are logged and never surfaced, since the local store
// stays the source of truth and the mirror may lag or miss entries.
//
// Propagate and Retract return before the sink call completes, but calls for
// the same meal date execute in the order they were enqueued, so a retract
// issued before an edit can never erase the propagate that follows it.
type Adapter struct {
	sink      Sink
	logger    *zap.Logger
	available bool

	mu    sync.Mutex
	tails map[int64]chan struct{}
	wg    sync.WaitGroup
}

// NewAdapter requests sink authorization once, for every supported nutrient
// type. When authorization fails the adapter stays usable but Propagate and
// Retract become no-ops.
func NewAdapter(sink Sink, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		sink:   sink,
		logger: logger,
		tails:  make(map[int64]chan struct{}),
	}

	types := make([]NutrientType, len(SupportedTypes))
	for i, st := range SupportedTypes {
		types[i] = st.Type
	}
	if err := sink.RequestAuthorization(types, types); err != nil {
		logger.Warn("health sink unavailable, sync disabled", zap.Error(err))
		return a
	}

	a.available = true
	return a
}

// Propagate writes one sample per nutrient present on the meal, stamped at
// the meal's date. Absent nutrients are not written at all, not written as
// zero.
func (a *Adapter) Propagate(meal *models.Meal) {
	if !a.available {
		return
	}
	samples := buildSamples(meal)
	mealID := meal.ID
	a.enqueue(meal.Date, func() {
		if err := a.sink.WriteSamples(samples); err != nil {
			a.logger.Warn("failed to sync meal to health store",
				zap.String("meal_id", mealID),
				zap.Error(err))
		}
	})
}

// Retract deletes every sample attributable to a meal logged at date.
// Callers invoke it before updating or deleting the local record so stale
// samples do not linger in the external store.
func (a *Adapter) Retract(date time.Time) {
	if !a.available {
		return
	}
	start, end := date, date.Add(retractWindow)
	a.enqueue(date, func() {
		for _, st := range SupportedTypes {
			if err := a.sink.DeleteSamples(st.Type, start, end); err != nil {
				a.logger.Warn("failed to retract health samples",
					zap.String("type", string(st.Type)),
					zap.Time("date", date),
					zap.Error(err))
			}
		}
	})
}

// Wait blocks until every enqueued sink call has finished. Intended for
// shutdown and tests.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

// enqueue chains job behind the previous job for the same date, so retracts
// and propagates for one meal never race each other.
func (a *Adapter) enqueue(date time.Time, job func()) {
	key := date.UnixNano()

	a.mu.Lock()
	prev := a.tails[key]
	done := make(chan struct{})
	a.tails[key] = done
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if prev != nil {
			<-prev
		}
		job()
		close(done)

		a.mu.Lock()
		if a.tails[key] == done {
			delete(a.tails, key)
		}
		a.mu.Unlock()
	}()
}

func buildSamples(meal *models.Meal) []Sample {
	at := meal.Date
	samples := []Sample{{
		Type:  EnergyConsumed,
		Value: meal.Calories,
		Unit:  Kilocalories,
		Start: at,
		End:   at,
	}}

	optional := []struct {
		t NutrientType
		u Unit
		v *float64
	}{
		{Protein, Grams, meal.Protein},
		{Carbohydrates, Grams, meal.Carbohydrates},
		{FatTotal, Grams, meal.Fat},
		{Sugar, Grams, meal.Sugar},
		{Caffeine, Milligrams, meal.Caffeine},
		{VitaminC, Milligrams, meal.VitaminC},
		{Calcium, Milligrams, meal.Calcium},
		{Iron, Milligrams, meal.Iron},
		{Fiber, Grams, meal.Fiber},
		{Sodium, Milligrams, meal.Sodium},
	}
	for _, o := range optional {
		if o.v != nil {
			samples = append(samples, Sample{Type: o.t, Value: *o.v, Unit: o.u, Start: at, End: at})
		}
	}
	return samples
}
