package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"seller_escalation_bot/internal/domain/quality"
)

// LoadPolicy returns the default escalation policy, overridden by the YAML
// file at path when path is not empty. Fields missing from the file keep
// their defaults.
//
// Example:
//
//	defective:
//	  min_issue_count: 2
//	  rate: 0.03
//	  critical: 0.04
func LoadPolicy(path string) (quality.Policy, error) {
	policy := quality.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return quality.Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return quality.Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return quality.Policy{}, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return policy, nil
}
