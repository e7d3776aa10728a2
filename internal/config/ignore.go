package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IgnoreConfig withholds releases from the download manifest without removing
// them from disk. Structure examples:
//
//		{
//		  "all": ["1.0", "2.0.0"],
//		  "ccn-Checker": ["1.4.2"],
//		  "cvv-Checker": {"all": ["2.1"], "macos-x64.dmg": ["2.0.1"]}
//		}
//
//	  - "all" (array) withholds whole versions for every app.
//	  - An app prefix key holds an array (every platform of that app) or an
//	    object with keys "all" (array) and platform suffixes (array).
//	  - A pattern matches the exact version or any version below it
//	    ("2.0" matches "2.0.1" but not "2.01.0").
type IgnoreConfig map[string]any

const ignoreAllKey = "all"

// LoadIgnoreConfig loads an ignore configuration file if provided.
// Returns an empty config if filePath is empty.
func LoadIgnoreConfig(filePath string) (IgnoreConfig, error) {
	if filePath == "" {
		return IgnoreConfig{}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", filePath, err)
	}
	var raw map[string]any
	switch ext := filepath.Ext(filePath); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML ignore file %s: %w", filePath, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON ignore file %s: %w", filePath, err)
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	ic := IgnoreConfig(raw)
	if err := ic.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return ic, nil
}

// validate rejects rules the matchers would skip. An unquoted YAML version
// such as 2.0 decodes as a number and loses its text, so it is an error.
func (ic IgnoreConfig) validate() error {
	for key, v := range ic {
		switch rules := v.(type) {
		case nil:
		case []any:
			if err := checkPatterns(key, rules); err != nil {
				return err
			}
		case map[string]any:
			if key == ignoreAllKey {
				return fmt.Errorf("%w: %q must be a list of versions", ErrInvalidIgnoreRule, key)
			}
			for sub, list := range rules {
				arr, ok := list.([]any)
				if !ok && list != nil {
					return fmt.Errorf("%w: %s.%s must be a list of versions", ErrInvalidIgnoreRule, key, sub)
				}
				if err := checkPatterns(key+"."+sub, arr); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%w: %s must be a list or a map", ErrInvalidIgnoreRule, key)
		}
	}
	return nil
}

func checkPatterns(key string, patterns []any) error {
	for _, p := range patterns {
		if _, ok := p.(string); !ok {
			return fmt.Errorf("%w: %s: %v is not a string (quote versions in YAML)", ErrInvalidIgnoreRule, key, p)
		}
	}
	return nil
}

// IsVersionIgnored returns true if a version is withheld for every app.
func (ic IgnoreConfig) IsVersionIgnored(version string) bool {
	patterns, ok := ic[ignoreAllKey].([]any)
	if !ok {
		return false
	}
	return matchPatterns(patterns, version)
}

// IsArtifactIgnored returns true if a single (app, version, platform) artifact is withheld.
func (ic IgnoreConfig) IsArtifactIgnored(appPrefix, version, suffix string) bool {
	if ic.IsVersionIgnored(version) {
		return true
	}

	v, ok := ic[appPrefix]
	if !ok {
		return false
	}

	switch rules := v.(type) {
	case []any:
		return matchPatterns(rules, version)
	case map[string]any:
		// App-wide patterns
		if all, ok := rules[ignoreAllKey].([]any); ok && matchPatterns(all, version) {
			return true
		}
		// Platform-specific patterns
		if arr, ok := rules[suffix].([]any); ok && matchPatterns(arr, version) {
			return true
		}
	}

	return false
}

func matchPatterns(patterns []any, version string) bool {
	for _, p := range patterns {
		s, ok := p.(string)
		if !ok || s == "" {
			continue
		}
		if s == version || strings.HasPrefix(version, s+".") {
			return true
		}
	}
	return false
}
