// Package config describes the input forms of the dashboard so views and
// API clients can render them.
package config

type FieldType string

const (
	FieldTypeNumber   FieldType = "number"
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
)

type Tags struct {
	Section string `json:"section,omitempty"`
}

type Field struct {
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	Label        string    `json:"label"`
	DefaultValue any       `json:"defaultValue"`
	Placeholder  string    `json:"placeholder,omitempty"`
	HelpText     string    `json:"helpText,omitempty"`
	Required     bool      `json:"required,omitempty"`
	Min          float32   `json:"min,omitempty"`
	Step         float32   `json:"step,omitempty"`
	Tags         Tags      `json:"tags,omitempty"`
}

type FieldGroup struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

type Form struct {
	Fields []Field `json:"fields"`
}

// Groups splits the fields by section, sections in order of first use.
func (f Form) Groups() []FieldGroup {
	groups := []FieldGroup{}
	index := map[string]int{}
	for _, field := range f.Fields {
		i, ok := index[field.Tags.Section]
		if !ok {
			i = len(groups)
			index[field.Tags.Section] = i
			groups = append(groups, FieldGroup{Name: field.Tags.Section})
		}
		groups[i].Fields = append(groups[i].Fields, field)
	}
	return groups
}
