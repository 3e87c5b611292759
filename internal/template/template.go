// Package template loads the YAML description of the genders, orientations, races,
// age brackets, traits and relationships that characters are generated from.
package template

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

//go:embed default.yaml
var defaultYAML []byte

// Template is the decoded YAML document.
type Template struct {
	Name          string             `yaml:"name"`
	Genders       []GenderSpec       `yaml:"genders"`
	Orientations  []OrientationSpec  `yaml:"orientations"`
	Races         []RaceSpec         `yaml:"races"`
	Ages          []AgeSpec          `yaml:"ages"`
	Traits        []NodeSpec         `yaml:"traits"`
	Relationships []RelationshipSpec `yaml:"relationships"`
}

// NodeSpec describes one option node and its children.
type NodeSpec struct {
	Name              string            `yaml:"name"`
	Weight            *int              `yaml:"weight,omitempty"`
	Choice            bool              `yaml:"choice,omitempty"`
	MultiSelect       bool              `yaml:"multiSelect,omitempty"`
	ManualMultiSelect bool              `yaml:"manualMultiSelect,omitempty"`
	AllowsNone        bool              `yaml:"allowsNone,omitempty"`
	NoneWeight        int               `yaml:"noneWeight,omitempty"`
	Modifiers         []option.Modifier `yaml:"modifiers,omitempty"`
	Children          []NodeSpec        `yaml:"children,omitempty"`
}

type GenderSpec struct {
	NodeSpec     `yaml:",inline"`
	gender.Attrs `yaml:",inline"`
}

type OrientationSpec struct {
	NodeSpec           `yaml:",inline"`
	gender.Orientation `yaml:",inline"`
}

type RaceSpec struct {
	NodeSpec `yaml:",inline"`
	Names    names.Files `yaml:"names,omitempty"`
}

type AgeSpec struct {
	NodeSpec       `yaml:",inline"`
	kin.AgeBracket `yaml:",inline"`
}

// RelationshipSpec describes one catalog node. Unset definition fields inherit.
type RelationshipSpec struct {
	Name                 string            `yaml:"name"`
	Weight               *int              `yaml:"weight,omitempty"`
	Modifiers            []option.Modifier `yaml:"modifiers,omitempty"`
	relations.Definition `yaml:",inline"`
	Children             []RelationshipSpec `yaml:"children,omitempty"`
}

// Parse decodes a template document.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if len(t.Genders) == 0 {
		return nil, errors.New("decode template: no genders")
	}
	return &t, nil
}

// Default returns the embedded template.
func Default() (*Template, error) {
	return Parse(defaultYAML)
}

// Load reads the template at path. An empty path or a missing file yields the default.
func Load(path string) (*Template, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
