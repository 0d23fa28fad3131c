package fraud

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed_cases.yaml
var seedYAML []byte

// SeedCases returns the cases inserted into an empty store.
func SeedCases() ([]Case, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed decodes a YAML list of cases. A missing status defaults to pending_review.
func ParseSeed(data []byte) ([]Case, error) {
	var doc struct {
		Cases []Case `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed cases: %w", err)
	}
	for i := range doc.Cases {
		if doc.Cases[i].Status == "" {
			doc.Cases[i].Status = StatusPendingReview
		}
		if err := doc.Cases[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed case %d: %w", i, err)
		}
	}
	return doc.Cases, nil
}
