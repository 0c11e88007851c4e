// meallog/service.go
package meallog

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/franckwan/foodlog/healthsync"
	"github.com/franckwan/foodlog/models"
	"github.com/franckwan/foodlog/storage"
)

// ErrNoFoods is returned when a commit produced nothing to log.
var ErrNoFoods = errors.New("no foods to log")

// Service ties the meal-logging flow together: committed recognition results
// and manual entries land in the store, and every store mutation is mirrored
// to the health adapter in the required order (retract before a mutation,
// propagate after). The adapter calls never block the save path.
type Service struct {
	store  *storage.MealStore
	health *healthsync.Adapter
	logger *zap.Logger
}

func NewService(store *storage.MealStore, health *healthsync.Adapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, health: health, logger: logger}
}

// LogRecognized folds one committed batch of recognized foods into a single
// meal record and saves it: calories and each nutrient sum over the batch,
// and the name joins the food names.
func (s *Service) LogRecognized(foods []models.RecognizedFood, imageData []byte, notes string) (*models.Meal, error) {
	if len(foods) == 0 {
		return nil, ErrNoFoods
	}

	var (
		names                        []string
		calories                     float64
		protein, carbs, fat          float64
		hasProtein, hasCarbs, hasFat bool
	)
	for _, f := range foods {
		names = append(names, f.Name)
		calories += f.Calories
		if f.Protein != nil {
			protein += *f.Protein
			hasProtein = true
		}
		if f.Carbs != nil {
			carbs += *f.Carbs
			hasCarbs = true
		}
		if f.Fat != nil {
			fat += *f.Fat
			hasFat = true
		}
	}

	draft := models.MealDraft{
		Name:      strings.Join(names, ", "),
		Calories:  calories,
		ImageData: imageData,
		Notes:     notes,
	}
	if hasProtein {
		draft.Protein = &protein
	}
	if hasCarbs {
		draft.Carbohydrates = &carbs
	}
	if hasFat {
		draft.Fat = &fat
	}

	return s.LogManual(draft)
}

// LogManual saves a manually entered meal and propagates it to the health
// store.
func (s *Service) LogManual(draft models.MealDraft) (*models.Meal, error) {
	meal, err := s.store.Create(draft)
	if err != nil {
		return nil, err
	}

	s.health.Propagate(meal)
	s.logger.Info("meal logged",
		zap.String("id", meal.ID),
		zap.Float64("calories", meal.Calories))
	return meal, nil
}

// Update applies a partial edit. Samples for the old values are retracted
// before the record changes, then the new values are propagated.
func (s *Service) Update(id string, patch models.MealPatch) (*models.Meal, error) {
	old, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	s.health.Retract(old.Date)
	meal, err := s.store.Update(id, patch)
	if err != nil {
		return nil, err
	}
	s.health.Propagate(meal)

	return meal, nil
}

// Delete removes a meal, retracting its health samples first.
func (s *Service) Delete(id string) error {
	old, err := s.store.Get(id)
	if err != nil {
		return err
	}

	s.health.Retract(old.Date)
	return s.store.Delete(id)
}

// History opens a lazy iterator over logged meals ordered by date.
func (s *Service) History(order storage.SortOrder) (*storage.MealIterator, error) {
	return s.store.Query(order)
}

// DailyCalorieTotals returns summed calories per calendar day, for the
// statistics display.
func (s *Service) DailyCalorieTotals() (map[string]float64, error) {
	return s.store.AggregateDailyTotals()
}

// AverageDailyCalories averages the daily totals; zero when nothing is
// logged yet.
func (s *Service) AverageDailyCalories() (float64, error) {
	totals, err := s.store.AggregateDailyTotals()
	if err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return 0, nil
	}

	var sum float64
	for _, v := range totals {
		sum += v
	}
	return sum / float64(len(totals)), nil
}
