// Package output provides formatters for displaying a VM's guestinfo
// properties in various formats (table, YAML, JSON).
package output

import (
	"fmt"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for declarative consumption.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// VMInfo is the printable view of one VM's guestinfo subset.
type VMInfo struct {
	Name      string            `json:"name" yaml:"name"`
	Guestinfo map[string]string `json:"guestinfo" yaml:"guestinfo"`
}

// Formatter renders a VMInfo for output.
type Formatter interface {
	// FormatVMInfo formats a single VM's guestinfo view.
	FormatVMInfo(info *VMInfo) (string, error)
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", format)
	}
}
