package domain

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleExtension holds maintainer additions to the built-in catalogue,
// typically loaded from a YAML file:
//
//	known_valid:
//	  - Am Tierpark Süd
//	not_a_street:
//	  - S-Bahnhof Westkreuz
//	corrections:
//	  Bernauer Str.: Bernauer Straße
//	patterns:
//	  - 'Kolonie\s[A-Z][a-zäöüß]+\s\d+'
type RuleExtension struct {
	KnownValid  []string          `yaml:"known_valid"`
	NotAStreet  []string          `yaml:"not_a_street"`
	Corrections map[string]string `yaml:"corrections"`
	Patterns    []string          `yaml:"patterns"`
}

// ParseRuleExtension decodes a YAML rule extension. Unknown keys are an error.
func ParseRuleExtension(r io.Reader) (RuleExtension, error) {
	var ext RuleExtension
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ext); err != nil && err != io.EOF {
		return RuleExtension{}, fmt.Errorf("decode street rules: %w", err)
	}
	return ext, nil
}

// LoadRuleSet returns the default catalogue, extended by the YAML file at
// path when path is not empty.
func LoadRuleSet(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open street rules: %w", err)
	}
	defer f.Close()

	ext, err := ParseRuleExtension(f)
	if err != nil {
		return nil, err
	}
	return DefaultRuleSet().Extend(ext)
}
