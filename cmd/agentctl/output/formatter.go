// Package output renders command results as tables, JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	Format(data any) string
}

// NewFormatter returns a Formatter for the given format string.
// Supported formats: "table" (default), "json", "yaml".
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "yaml":
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Valid reports whether format names a known formatter.
func Valid(format string) bool {
	switch strings.ToLower(format) {
	case "", "table", "json", "yaml":
		return true
	}
	return false
}

// TableFormatter formats data as aligned text tables using tabwriter.
// Column names come from the `table` struct tag, falling back to the
// upper-cased field name; fields tagged `table:"-"` are skipped.
type TableFormatter struct{}

func columns(t reflect.Type) ([]int, []string) {
	idx := []int{}
	names := []string{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("table")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToUpper(f.Name)
		}
		idx = append(idx, i)
		names = append(names, name)
	}
	return idx, names
}

func cell(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	s := fmt.Sprintf("%v", v.Interface())
	if s == "" {
		return "-"
	}
	return s
}

func (f *TableFormatter) Format(data any) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return "No resources found.\n"
		}
		elem := v.Index(0)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() == reflect.Struct {
			idx, headers := columns(elem.Type())
			fmt.Fprintln(w, strings.Join(headers, "\t"))

			for i := 0; i < v.Len(); i++ {
				row := v.Index(i)
				if row.Kind() == reflect.Ptr {
					row = row.Elem()
				}
				vals := make([]string, len(idx))
				for j, fi := range idx {
					vals[j] = cell(row.Field(fi))
				}
				fmt.Fprintln(w, strings.Join(vals, "\t"))
			}
		} else {
			for i := 0; i < v.Len(); i++ {
				fmt.Fprintln(w, v.Index(i).Interface())
			}
		}
	case reflect.Struct:
		idx, names := columns(v.Type())
		for j, fi := range idx {
			fmt.Fprintf(w, "%s:\t%s\n", names[j], cell(v.Field(fi)))
		}
	default:
		fmt.Fprintln(w, data)
	}

	w.Flush()
	return buf.String()
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any) string {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return string(b)
}

var (
	speakerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Speaker renders a chat speaker label.
func Speaker(name string) string { return speakerStyle.Render(name + ":") }

// Error renders an inline error line.
func Error(msg string) string { return errorStyle.Render(msg) }
