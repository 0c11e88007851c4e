// models/food.go
package models

// RecognizedFood is one food candidate proposed by the vision model for a
// single submitted photo. Included tracks the user's keep/discard decision
// during review and defaults to true.
type RecognizedFood struct {
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
	Protein  *float64 `json:"protein,omitempty"` // g
	Carbs    *float64 `json:"carbs,omitempty"`   // g
	Fat      *float64 `json:"fat,omitempty"`     // g
	Included bool     `json:"-"`
}
