package output

import (
	"bytes"
	"fmt"
	"sort"
	"text/tabwriter"
)

// TableFormatter formats guestinfo as a human-readable table.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// Values longer than this are truncated in table output; encoded
// payloads run to kilobytes and would make the table unreadable.
const maxTableValueLen = 60

// FormatVMInfo formats the VM's guestinfo keys as a table, sorted by key.
func (f *TableFormatter) FormatVMInfo(info *VMInfo) (string, error) {
	if len(info.Guestinfo) == 0 {
		return fmt.Sprintf("VM %s has no guestinfo properties\n", info.Name), nil
	}

	keys := make([]string, 0, len(info.Guestinfo))
	for k := range info.Guestinfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "KEY\tVALUE")
	}

	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", k, truncate(info.Guestinfo[k], maxTableValueLen))
	}

	_ = w.Flush()
	return buf.String(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
