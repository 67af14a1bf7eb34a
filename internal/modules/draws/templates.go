package draws

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed conditions.yaml
var builtinTemplates []byte

// ConditionTemplate is a standard condition precedent seeded into new draws
type ConditionTemplate struct {
	ConditionID string `yaml:"condition_id" json:"conditionId"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category" json:"category"`
}

type templateFile struct {
	Name       string              `yaml:"name"`
	Conditions []ConditionTemplate `yaml:"condition_templates"`
}

// ParseTemplates decodes a YAML template set. Category defaults to the title.
func ParseTemplates(data []byte) ([]ConditionTemplate, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse condition templates: %w", err)
	}

	seen := make(map[string]bool, len(file.Conditions))
	templates := make([]ConditionTemplate, 0, len(file.Conditions))
	for i, t := range file.Conditions {
		t.ConditionID = strings.TrimSpace(t.ConditionID)
		t.Title = strings.TrimSpace(t.Title)
		if t.ConditionID == "" || t.Title == "" {
			return nil, fmt.Errorf("condition template %d: condition_id and title are required", i)
		}
		if seen[t.ConditionID] {
			return nil, fmt.Errorf("condition template %d: duplicate condition_id %q", i, t.ConditionID)
		}
		seen[t.ConditionID] = true
		if t.Category == "" {
			t.Category = t.Title
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// DefaultTemplates returns the built-in construction draw conditions
func DefaultTemplates() []ConditionTemplate {
	templates, err := ParseTemplates(builtinTemplates)
	if err != nil {
		panic(err)
	}
	return templates
}

// LoadTemplates reads templates from path, or returns the built-in set when
// path is empty
func LoadTemplates(path string) ([]ConditionTemplate, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read condition templates: %w", err)
	}
	return ParseTemplates(data)
}

func conditionsFromTemplates(templates []ConditionTemplate) []DrawCondition {
	conditions := make([]DrawCondition, 0, len(templates))
	for _, t := range templates {
		conditions = append(conditions, DrawCondition{
			ConditionID: t.ConditionID,
			Title:       t.Title,
			Description: t.Description,
			Category:    t.Category,
			Status:      ConditionPending,
		})
	}
	return conditions
}
