package models

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownCategory is returned when a category has no metric whitelist.
var ErrUnknownCategory = errors.New("unknown category")

// Metric type tags.
const (
	MetricHoursToDedicate    = "Hours to Dedicate"
	MetricKeyConcepts        = "Key Concepts"
	MetricMilestones         = "Milestones"
	MetricCodeCommits        = "Code Commits"
	MetricCoreAlgorithms     = "Core Algorithms"
	MetricWeeklyProblemGoals = "Weekly Problem Goals"
)

var categoryMetricTypes = map[Category][]string{
	CategoryLearningLanguage:   {MetricHoursToDedicate, MetricKeyConcepts},
	CategoryProjectDevelopment: {MetricMilestones, MetricCodeCommits},
	CategoryAlgorithmMastery:   {MetricCoreAlgorithms, MetricWeeklyProblemGoals},
}

// Categories lists every known category.
func Categories() []Category {
	return []Category{CategoryLearningLanguage, CategoryProjectDevelopment, CategoryAlgorithmMastery}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryMetricTypes[c]
	return ok
}

// AllowedMetricTypes returns the metric whitelist for c.
func AllowedMetricTypes(c Category) ([]string, error) {
	types, ok := categoryMetricTypes[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return slices.Clone(types), nil
}

// FilterMetrics keeps, in order, only the metrics whose type is allowed for c.
// Disallowed metrics are dropped without error; an unknown category is an error.
func FilterMetrics(c Category, metrics []Metric) ([]Metric, error) {
	allowed, err := AllowedMetricTypes(c)
	if err != nil {
		return nil, err
	}

	kept := make([]Metric, 0, len(metrics))
	for _, m := range metrics {
		if slices.Contains(allowed, m.Type) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
