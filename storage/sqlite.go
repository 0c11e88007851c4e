// storage/sqlite.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/franckwan/foodlog/models"
)

// ErrNotFound is returned when no meal exists for the requested id. Deletes
// are not idempotent: deleting an absent id reports this error too.
var ErrNotFound = errors.New("meal not found")

// SortOrder controls the date ordering of Query results.
type SortOrder string

const (
	Ascending  SortOrder = "ASC"
	Descending SortOrder = "DESC"
)

// Dates are stored as fixed-width UTC strings so lexicographic and
// chronological order agree.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Options tunes store behavior.
type Options struct {
	// KeepZeroNutrients stores a nutrient value of exactly 0 as 0. By
	// default a 0 is normalized to absent, matching the app's historical
	// behavior of conflating zero and unset.
	KeepZeroNutrients bool
}

// MealStore is the durable collection of logged meals, backed by SQLite. It
// exclusively owns the records; readers get copies. Concurrent reads during
// a write flow are safe (WAL mode); each Query observes its own consistent
// snapshot.
type MealStore struct {
	db        *sql.DB
	keepZeros bool
}

// NewMealStore opens (creating if needed) the database at dbPath.
func NewMealStore(dbPath string, opts Options) (*MealStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MealStore{db: db, keepZeros: opts.KeepZeroNutrients}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *MealStore) Close() error {
	return s.db.Close()
}

func (s *MealStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        calories REAL,
        date TEXT NOT NULL,
        image BLOB,
        notes TEXT NOT NULL DEFAULT '',
        protein REAL,
        carbohydrates REAL,
        fat REAL,
        sugar REAL,
        caffeine REAL,
        vitamin_c REAL,
        calcium REAL,
        iron REAL,
        fiber REAL,
        sodium REAL
    );

    CREATE INDEX IF NOT EXISTS idx_meals_date ON meals(date);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const mealColumns = `id, name, calories, date, image, notes,
        protein, carbohydrates, fat, sugar, caffeine, vitamin_c, calcium, iron, fiber, sodium`

// Create persists a new meal. The store assigns the id and stamps the date;
// both are immutable for the life of the record.
func (s *MealStore) Create(draft models.MealDraft) (*models.Meal, error) {
	meal := &models.Meal{
		ID:            uuid.NewString(),
		Name:          draft.Name,
		Calories:      draft.Calories,
		Date:          time.Now().UTC(),
		ImageData:     draft.ImageData,
		Notes:         draft.Notes,
		Protein:       draft.Protein,
		Carbohydrates: draft.Carbohydrates,
		Fat:           draft.Fat,
		Sugar:         draft.Sugar,
		Caffeine:      draft.Caffeine,
		VitaminC:      draft.VitaminC,
		Calcium:       draft.Calcium,
		Iron:          draft.Iron,
		Fiber:         draft.Fiber,
		Sodium:        draft.Sodium,
	}
	s.normalizeZeros(meal)

	query := `
        INSERT INTO meals (` + mealColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.Exec(query,
		meal.ID, meal.Name, meal.Calories, meal.Date.Format(timeLayout),
		meal.ImageData, meal.Notes,
		meal.Protein, meal.Carbohydrates, meal.Fat, meal.Sugar, meal.Caffeine,
		meal.VitaminC, meal.Calcium, meal.Iron, meal.Fiber, meal.Sodium)
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal: %w", err)
	}

	return meal, nil
}

// Get loads one meal by id.
func (s *MealStore) Get(id string) (*models.Meal, error) {
	row := s.db.QueryRow(`SELECT `+mealColumns+` FROM meals WHERE id = ?`, id)
	meal, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load meal: %w", err)
	}
	return meal, nil
}

// Update applies a partial edit and returns the stored record. The id and
// date are untouched.
func (s *MealStore) Update(id string, patch models.MealPatch) (*models.Meal, error) {
	meal, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	patch.Apply(meal)
	s.normalizeZeros(meal)

	query := `
        UPDATE meals
        SET name = ?, calories = ?, image = ?, notes = ?,
            protein = ?, carbohydrates = ?, fat = ?, sugar = ?, caffeine = ?,
            vitamin_c = ?, calcium = ?, iron = ?, fiber = ?, sodium = ?
        WHERE id = ?
    `
	_, err = s.db.Exec(query,
		meal.Name, meal.Calories, meal.ImageData, meal.Notes,
		meal.Protein, meal.Carbohydrates, meal.Fat, meal.Sugar, meal.Caffeine,
		meal.VitaminC, meal.Calcium, meal.Iron, meal.Fiber, meal.Sodium,
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}

	return meal, nil
}

// Delete removes one meal.
func (s *MealStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Query opens a fresh cursor over all meals ordered by date. The iterator is
// lazy and need not reflect records created after the cursor opened; call
// Query again for a new snapshot. The caller must Close the iterator.
// Any order other than Ascending is treated as Descending, the newest-first
// view a history screen wants; order is never interpolated verbatim.
func (s *MealStore) Query(order SortOrder) (*MealIterator, error) {
	if order != Ascending {
		order = Descending
	}
	rows, err := s.db.Query(`SELECT ` + mealColumns + ` FROM meals ORDER BY date ` + string(order))
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	return &MealIterator{rows: rows}, nil
}

// AggregateDailyTotals sums calories per calendar day (UTC), keyed by
// "2006-01-02". Missing or NaN calorie values count as zero rather than
// poisoning the sums.
func (s *MealStore) AggregateDailyTotals() (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT date, calories FROM meals`)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var dateStr string
		var calories sql.NullFloat64
		if err := rows.Scan(&dateStr, &calories); err != nil {
			return nil, fmt.Errorf("failed to scan total: %w", err)
		}

		day, err := time.Parse(time.RFC3339Nano, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		v := calories.Float64
		if !calories.Valid || math.IsNaN(v) {
			v = 0
		}
		totals[day.Format("2006-01-02")] += v
	}

	return totals, rows.Err()
}

// normalizeZeros drops nutrient values of exactly 0 unless the store was
// opened with KeepZeroNutrients. Zero and unset are conflated on purpose;
// see Options.
func (s *MealStore) normalizeZeros(m *models.Meal) {
	if s.keepZeros {
		return
	}
	fields := []**float64{
		&m.Protein, &m.Carbohydrates, &m.Fat, &m.Sugar, &m.Caffeine,
		&m.VitaminC, &m.Calcium, &m.Iron, &m.Fiber, &m.Sodium,
	}
	for _, f := range fields {
		if *f != nil && **f == 0 {
			*f = nil
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*models.Meal, error) {
	var (
		meal     models.Meal
		calories sql.NullFloat64
		dateStr  string
		nuts     [10]sql.NullFloat64
	)

	err := row.Scan(
		&meal.ID, &meal.Name, &calories, &dateStr, &meal.ImageData, &meal.Notes,
		&nuts[0], &nuts[1], &nuts[2], &nuts[3], &nuts[4],
		&nuts[5], &nuts[6], &nuts[7], &nuts[8], &nuts[9])
	if err != nil {
		return nil, err
	}

	if meal.Date, err = time.Parse(time.RFC3339Nano, dateStr); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if calories.Valid {
		meal.Calories = calories.Float64
	}

	meal.Protein = nullableFloat(nuts[0])
	meal.Carbohydrates = nullableFloat(nuts[1])
	meal.Fat = nullableFloat(nuts[2])
	meal.Sugar = nullableFloat(nuts[3])
	meal.Caffeine = nullableFloat(nuts[4])
	meal.VitaminC = nullableFloat(nuts[5])
	meal.Calcium = nullableFloat(nuts[6])
	meal.Iron = nullableFloat(nuts[7])
	meal.Fiber = nullableFloat(nuts[8])
	meal.Sodium = nullableFloat(nuts[9])

	return &meal, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

// MealIterator walks one Query result set lazily.
type MealIterator struct {
	rows    *sql.Rows
	current *models.Meal
	err     error
}

// Next advances to the next meal, returning false when the sequence is
// exhausted or an error occurred (check Err).
func (it *MealIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.current = nil
		it.err = it.rows.Err()
		return false
	}
	it.current, it.err = scanMeal(it.rows)
	return it.err == nil
}

// Meal returns the record Next advanced to.
func (it *MealIterator) Meal() *models.Meal {
	return it.current
}

func (it *MealIterator) Err() error {
	return it.err
}

func (it *MealIterator) Close() error {
	return it.rows.Close()
}
