package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trendscope/internal/domain/trend"
)

// DefaultPatterns returns the built-in seasonal pattern library, derived
// from the major marketplace demand windows
func DefaultPatterns() []trend.SeasonalPattern {
	return []trend.SeasonalPattern{
		{Name: "q1_peak", StartMonth: 1, StartDay: 1, EndMonth: 2, EndDay: 15, LookbackYears: 3, ExpectedLiftRatio: 1.3},
		{Name: "valentines", StartMonth: 2, StartDay: 1, EndMonth: 2, EndDay: 14, LookbackYears: 3, ExpectedLiftRatio: 1.5},
		{Name: "spring", StartMonth: 3, StartDay: 1, EndMonth: 5, EndDay: 31, LookbackYears: 3, ExpectedLiftRatio: 1.2},
		{Name: "summer", StartMonth: 6, StartDay: 1, EndMonth: 8, EndDay: 31, LookbackYears: 3, ExpectedLiftRatio: 1.5},
		{Name: "back_to_school", StartMonth: 8, StartDay: 1, EndMonth: 9, EndDay: 15, LookbackYears: 3, ExpectedLiftRatio: 1.5},
		{Name: "q4_holiday", StartMonth: 10, StartDay: 1, EndMonth: 12, EndDay: 25, LookbackYears: 3, ExpectedLiftRatio: 1.8},
		{Name: "black_friday", StartMonth: 11, StartDay: 20, EndMonth: 11, EndDay: 30, LookbackYears: 3, ExpectedLiftRatio: 2.0},
	}
}

type patternFile struct {
	Patterns []trend.SeasonalPattern `yaml:"patterns"`
}

// LoadPatterns reads a seasonal pattern library from a YAML file
func LoadPatterns(path string) ([]trend.SeasonalPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading pattern library: %w", err)
	}

	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing pattern library: %w", err)
	}

	if len(file.Patterns) == 0 {
		return nil, &trend.ConfigurationError{Reason: fmt.Sprintf("pattern library %s contains no patterns", path)}
	}

	for _, p := range file.Patterns {
		if err := validatePattern(p); err != nil {
			return nil, err
		}
	}

	return file.Patterns, nil
}
