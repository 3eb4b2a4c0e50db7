package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter formats guestinfo as JSON.
type JSONFormatter struct{}

// FormatVMInfo formats the VM's guestinfo view as indented JSON.
func (f *JSONFormatter) FormatVMInfo(info *VMInfo) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal guestinfo to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
