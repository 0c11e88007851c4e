// models/meal.go
package models

import (
	"time"
)

// Meal is one logged meal. Date is stamped when the record is created and
// never changes afterwards: it is the key used to pair the record with the
// samples mirrored into the external health store.
type Meal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  float64   `json:"calories"`
	Date      time.Time `json:"date"`
	ImageData []byte    `json:"image_data,omitempty"`
	Notes     string    `json:"notes,omitempty"`

	Protein       *float64 `json:"protein,omitempty"`       // g
	Carbohydrates *float64 `json:"carbohydrates,omitempty"` // g
	Fat           *float64 `json:"fat,omitempty"`           // g
	Sugar         *float64 `json:"sugar,omitempty"`         // g
	Caffeine      *float64 `json:"caffeine,omitempty"`      // mg
	VitaminC      *float64 `json:"vitamin_c,omitempty"`     // mg
	Calcium       *float64 `json:"calcium,omitempty"`       // mg
	Iron          *float64 `json:"iron,omitempty"`          // mg
	Fiber         *float64 `json:"fiber,omitempty"`         // g
	Sodium        *float64 `json:"sodium,omitempty"`        // mg
}

// MealDraft is the input for creating a meal. The store assigns the ID and
// the Date. A nil nutrient means the value is unknown.
type MealDraft struct {
	Name      string
	Calories  float64
	ImageData []byte
	Notes     string

	Protein       *float64
	Carbohydrates *float64
	Fat           *float64
	Sugar         *float64
	Caffeine      *float64
	VitaminC      *float64
	Calcium       *float64
	Iron          *float64
	Fiber         *float64
	Sodium        *float64
}

// MealPatch is a partial edit. Nil fields are left unchanged; ID and Date
// cannot be patched. A non-nil ImageData replaces the photo outright, so
// pointing it at a nil slice removes the photo.
type MealPatch struct {
	Name      *string
	Calories  *float64
	ImageData *[]byte
	Notes     *string

	Protein       *float64
	Carbohydrates *float64
	Fat           *float64
	Sugar         *float64
	Caffeine      *float64
	VitaminC      *float64
	Calcium       *float64
	Iron          *float64
	Fiber         *float64
	Sodium        *float64
}

// Apply writes the patch's set fields onto m.
func (p MealPatch) Apply(m *Meal) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Calories != nil {
		m.Calories = *p.Calories
	}
	if p.ImageData != nil {
		m.ImageData = *p.ImageData
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	pairs := []struct {
		src *float64
		dst **float64
	}{
		{p.Protein, &m.Protein},
		{p.Carbohydrates, &m.Carbohydrates},
		{p.Fat, &m.Fat},
		{p.Sugar, &m.Sugar},
		{p.Caffeine, &m.Caffeine},
		{p.VitaminC, &m.VitaminC},
		{p.Calcium, &m.Calcium},
		{p.Iron, &m.Iron},
		{p.Fiber, &m.Fiber},
		{p.Sodium, &m.Sodium},
	}
	for _, pair := range pairs {
		if pair.src != nil {
			v := *pair.src
			*pair.dst = &v
		}
	}
}
