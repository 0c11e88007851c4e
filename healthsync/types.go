// healthsync/types.go
package healthsync

import "time"

// NutrientType identifies one dietary quantity in the external health store.
type NutrientType string

const (
	EnergyConsumed NutrientType = "dietary_energy_consumed"
	Protein        NutrientType = "dietary_protein"
	Carbohydrates  NutrientType = "dietary_carbohydrates"
	FatTotal       NutrientType = "dietary_fat_total"
	Sugar          NutrientType = "dietary_sugar"
	Caffeine       NutrientType = "dietary_caffeine"
	VitaminC       NutrientType = "dietary_vitamin_c"
	Calcium        NutrientType = "dietary_calcium"
	Iron           NutrientType = "dietary_iron"
	Fiber          NutrientType = "dietary_fiber"
	Sodium         NutrientType = "dietary_sodium"
)

// Unit is the measurement unit a sample is expressed in.
type Unit string

const (
	Kilocalories Unit = "kcal"
	Grams        Unit = "g"
	Milligrams   Unit = "mg"
)

// SupportedTypes lists every nutrient type the adapter writes, with the unit
// each is expressed in.
var SupportedTypes = []struct {
	Type NutrientType
	Unit Unit
}{
	{EnergyConsumed, Kilocalories},
	{Protein, Grams},
	{Carbohydrates, Grams},
	{FatTotal, Grams},
	{Sugar, Grams},
	{Caffeine, Milligrams},
	{VitaminC, Milligrams},
	{Calcium, Milligrams},
	{Iron, Milligrams},
	{Fiber, Grams},
	{Sodium, Milligrams},
}

// Sample is one quantity written to the external store.
type Sample struct {
	Type  NutrientType
	Value float64
	Unit  Unit
	Start time.Time
	End   time.Time
}

// Sink is the platform health store the adapter mirrors meals into. The
// store is outside this module's control; implementations wrap whatever the
// hosting application provides.
type Sink interface {
	RequestAuthorization(read, write []NutrientType) error
	WriteSamples(samples []Sample) error
	DeleteSamples(t NutrientType, start, end time.Time) error
}
