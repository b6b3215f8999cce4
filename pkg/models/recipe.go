package models

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// MealSlots is the order in which a day plan is assembled.
var MealSlots = []MealType{MealBreakfast, MealLunch, MealDinner}

// ParseMealType case-folds and trims a recipe's meal tag.
func ParseMealType(tag string) (MealType, bool) {
	folded := MealType(foldTag(tag))
	for _, slot := range MealSlots {
		if slot == folded {
			return slot, true
		}
	}
	return "", false
}

// Nutrition holds per-serving values as they appear in the recipe table.
type Nutrition struct {
	Calories     float64 `json:"calories" db:"calories"`
	TotalFat     float64 `json:"total_fat" db:"total_fat"`
	Sugar        float64 `json:"sugar" db:"sugar"`
	Sodium       float64 `json:"sodium" db:"sodium"`
	Protein      float64 `json:"protein" db:"protein"`
	SaturatedFat float64 `json:"saturated_fat" db:"saturated_fat"`
	Carbs        float64 `json:"carbs" db:"carbs"`
}

// Recipe is read-only reference data for a ranking call.
type Recipe struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Ingredients string    `json:"ingredients,omitempty" db:"ingredients"`
	Nutrition   Nutrition `json:"nutrition"`
	DietType    string    `json:"diet_type" db:"diet_type"`
	PrepTime    float64   `json:"prep_time" db:"prep_time"`
	MealType    string    `json:"meal_type" db:"meal_type"`
	URL         string    `json:"url,omitempty" db:"url"`
}
