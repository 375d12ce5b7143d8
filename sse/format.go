package sse

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kbukum/evtsrc/errors"
)

// Format encodes c as a single SSE record. Comment lines come first, then
// the event line, then one data line per line of the payload, and the
// record is terminated by a blank line. Data is JSON-encoded when asJSON is
// set or when it is not a string. An empty string and nil error are
// returned when the chunk produces no lines.
func Format(c Chunk, asJSON bool) (string, error) {
	lines := make([]string, 0, 4)

	if c.Comment != "" {
		for _, line := range strings.Split(c.Comment, "\n") {
			lines = append(lines, ":"+line)
		}
	}

	if c.EventName != "" {
		name := strings.TrimSpace(strings.ReplaceAll(c.EventName, "\n", " "))
		lines = append(lines, "event: "+name)
	}

	if c.HasData() {
		payload, err := encodeData(c.Data, asJSON)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(payload, "\n") {
			lines = append(lines, "data: "+line)
		}
	}

	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n\n", nil
}

func encodeData(data any, asJSON bool) (string, error) {
	if s, ok := data.(string); ok && !asJSON {
		return s, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", errors.Validation("data is not JSON-encodable").WithCause(err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
