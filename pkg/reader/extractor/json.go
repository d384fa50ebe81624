// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extractor

import (
	"bytes"
	"encoding/json"
	"strings"
)

func extractJSON(content []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(content), "", "  "); err != nil {
		return string(content)
	}
	return buf.String()
}

// extractJSONL pretty-prints each line; lines that are not JSON are kept
// as they are.
func extractJSONL(content []byte) string {
	var parts []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(line), "", "  "); err != nil {
			parts = append(parts, line)
			continue
		}
		parts = append(parts, buf.String())
	}
	return strings.Join(parts, "\n")
}
