package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/pkg/models"
)

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// headerAliases maps alternative column names onto canonical ones.
var headerAliases = map[string]string{
	"recipe_id":     "id",
	"calories_kcal": "calories",
	"fat_total":     "total_fat",
}

// ParseNumber extracts the first number from a messy cell such as
// "1,250 kcal" or "12g". Empty or unparsable cells yield 0.
func ParseNumber(cell string) float64 {
	cleaned := strings.ReplaceAll(cell, ",", "")
	match := numberPattern.FindString(cleaned)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseRecipesCSV reads a recipe table with a header row. Missing nutrition
// or prep-time columns read as 0; a missing id column falls back to the
// 1-based row number.
func ParseRecipesCSV(r io.Reader) ([]models.Recipe, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.Recipe{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("recipe table has no name column")
	}

	var recipes []models.Recipe
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id := cell("id")
		if id == "" {
			id = strconv.Itoa(row)
		}

		recipes = append(recipes, models.Recipe{
			ID:          id,
			Name:        cell("name"),
			Ingredients: cell("ingredients"),
			Nutrition: models.Nutrition{
				Calories:     ParseNumber(cell("calories")),
				TotalFat:     ParseNumber(cell("total_fat")),
				Sugar:        ParseNumber(cell("sugar")),
				Sodium:       ParseNumber(cell("sodium")),
				Protein:      ParseNumber(cell("protein")),
				SaturatedFat: ParseNumber(cell("saturated_fat")),
				Carbs:        ParseNumber(cell("carbs")),
			},
			DietType: cell("diet_type"),
			PrepTime: ParseNumber(cell("prep_time")),
			MealType: cell("meal_type"),
			URL:      cell("url"),
		})
	}

	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return recipes, nil
}

// LoadCSV reads the recipe table at path into a Static catalog.
func LoadCSV(path string, logger *logrus.Logger) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipe table: %w", err)
	}
	defer f.Close()

	recipes, err := ParseRecipesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"recipes": len(recipes),
	}).Info("Recipe table loaded")

	return NewStatic(recipes), nil
}
