package output

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats guestinfo as YAML.
type YAMLFormatter struct{}

// FormatVMInfo formats the VM's guestinfo view as YAML.
func (f *YAMLFormatter) FormatVMInfo(info *VMInfo) (string, error) {
	data, err := yaml.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to marshal guestinfo to YAML: %w", err)
	}

	return string(data), nil
}
