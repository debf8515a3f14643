// Package seed provides the default data new users start with.
package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Category is one node of a seed category tree.
type Category struct {
	Name     string     `yaml:"name"`
	Income   bool       `yaml:"income"`
	Color    string     `yaml:"color"`
	Children []Category `yaml:"children"`
}

type document struct {
	Categories []Category `yaml:"categories"`
}

// Defaults returns the built-in category tree.
func Defaults() ([]Category, error) {
	return Parse(defaultsYAML)
}

// Parse reads a category tree from YAML. Names must be non-empty and
// unique among siblings, and trees are at most two levels deep.
func Parse(data []byte) ([]Category, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed categories: %w", err)
	}
	if err := validate(doc.Categories, 0); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func validate(categories []Category, depth int) error {
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("seed category without a name")
		}
		if seen[strings.ToLower(name)] {
			return fmt.Errorf("duplicate seed category %q", name)
		}
		seen[strings.ToLower(name)] = true

		if len(c.Children) > 0 {
			if depth > 0 {
				return fmt.Errorf("seed category %q is nested too deeply", name)
			}
			if err := validate(c.Children, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
