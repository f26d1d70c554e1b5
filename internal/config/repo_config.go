package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/patch-warden/internal/core"
)

var (
	ErrRulesNotFound = errors.New("rules file not found")
	ErrRulesParsing  = errors.New("rules parsing failed")
)

// LoadRepoRules loads and parses a .patch-warden.yml file. A missing file
// yields the default rules together with ErrRulesNotFound.
func LoadRepoRules(path string) (*core.RepoRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return core.DefaultRepoRules(), ErrRulesNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ParseRepoRules(data)
}

// ParseRepoRules decodes the YAML content of a rules file.
func ParseRepoRules(data []byte) (*core.RepoRules, error) {
	rules := core.DefaultRepoRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRulesParsing, err)
	}
	return rules, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// ApplyRulesFile loads Review.RulesFile, when set, and merges it into the
// review settings. A missing file is not an error.
func (c *Config) ApplyRulesFile() error {
	if c.Review.RulesFile == "" {
		return nil
	}
	rules, err := LoadRepoRules(c.Review.RulesFile)
	if err != nil {
		if errors.Is(err, ErrRulesNotFound) {
			return nil
		}
		return err
	}
	c.ApplyRules(rules)
	return nil
}
