package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/webpuppy/webhound-go/internal/validation"
)

const defaultRulesPath = "configs/validation.yaml"

// LoadRules builds a validation rule table from the YAML file named by
// VALIDATION_RULES_PATH. Without an explicit path, a missing default file is
// not an error: the compiled-in rules are returned instead.
func LoadRules() (validation.Rules, error) {
	path := os.Getenv("VALIDATION_RULES_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultRulesPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return validation.DefaultRules(), nil
		}
		return validation.Rules{}, err
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return validation.Rules{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return Compile(cfg)
}

// Compile turns a parsed config into a usable rule table, compiling every
// pattern and filling unset limits from the defaults.
func Compile(cfg RulesConfig) (validation.Rules, error) {
	defaults := validation.DefaultRules()

	rules := validation.Rules{
		MinLength:        cfg.Limits.MinLength,
		MaxLength:        cfg.Limits.MaxLength,
		ShortAdvisoryLen: cfg.Limits.ShortAdvisory,
		LongAdvisoryLen:  cfg.Limits.LongAdvisory,
	}
	if rules.MinLength == 0 {
		rules.MinLength = defaults.MinLength
	}
	if rules.MaxLength == 0 {
		rules.MaxLength = defaults.MaxLength
	}
	if rules.ShortAdvisoryLen == 0 {
		rules.ShortAdvisoryLen = defaults.ShortAdvisoryLen
	}
	if rules.LongAdvisoryLen == 0 {
		rules.LongAdvisoryLen = defaults.LongAdvisoryLen
	}

	for _, categoryCfg := range cfg.Categories {
		category := validation.Category{
			Code:       validation.ReasonCode(categoryCfg.Code),
			Warning:    categoryCfg.Warning,
			Suggestion: categoryCfg.Suggestion,
		}
		for _, expr := range categoryCfg.Patterns {
			pattern, err := regexp.Compile(expr)
			if err != nil {
				return validation.Rules{}, fmt.Errorf("category %s: bad pattern %q: %w", categoryCfg.Code, expr, err)
			}
			category.Patterns = append(category.Patterns, pattern)
		}
		// The repeated-run test is structural, not a pattern; carry it over
		// for the spam category regardless of the configured pattern list.
		if category.Code == validation.ReasonSpamPattern {
			for _, dc := range defaults.Categories {
				if dc.Code == validation.ReasonSpamPattern {
					category.Checks = dc.Checks
				}
			}
		}
		rules.Categories = append(rules.Categories, category)
	}

	if len(rules.Categories) == 0 {
		rules.Categories = defaults.Categories
	}

	for _, expr := range cfg.Generic {
		pattern, err := regexp.Compile(expr)
		if err != nil {
			return validation.Rules{}, fmt.Errorf("bad generic pattern %q: %w", expr, err)
		}
		rules.GenericPatterns = append(rules.GenericPatterns, pattern)
	}
	if len(rules.GenericPatterns) == 0 {
		rules.GenericPatterns = defaults.GenericPatterns
	}

	return rules, nil
}
