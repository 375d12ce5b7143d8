package sse

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single wire line.
const maxLineSize = 1 << 20

// Event represents a single decoded server-sent event record.
type Event struct {
	// Event is the SSE event type (from "event:" line). Empty for data-only events.
	Event string
	// Data is the event payload (from "data:" line(s)). Multi-line data is joined with newlines.
	Data string
	// ID is the event ID (from "id:" line).
	ID string
	// Comment holds the record's comment lines without the leading colon, joined with newlines.
	Comment string

	hasData bool
}

// HasData reports whether the record carried at least one data line.
// Only such records are dispatched to event listeners.
func (e *Event) HasData() bool { return e.hasData }

// Name returns the event type, defaulting to EventMessage.
func (e *Event) Name() string {
	if e.Event == "" {
		return EventMessage
	}
	return e.Event
}

// Reader reads server-sent events from a stream.
type Reader interface {
	// Next returns the next SSE event. Returns io.EOF when the stream ends.
	Next() (*Event, error)
	// Close releases the underlying resources.
	Close() error
}

type reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
}

// NewReader creates an SSE reader from a readable stream.
func NewReader(body io.ReadCloser) Reader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &reader{
		scanner: scanner,
		body:    body,
	}
}

// Next returns the next record carrying data or comments. Returns io.EOF when the stream ends.
func (r *reader) Next() (*Event, error) {
	var event Event
	var hasComment bool

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		// Blank line signals end of event
		if line == "" {
			if event.hasData || hasComment {
				return &event, nil
			}
			event = Event{}
			continue
		}

		if strings.HasPrefix(line, ":") {
			if hasComment {
				event.Comment += "\n" + line[1:]
			} else {
				event.Comment = line[1:]
				hasComment = true
			}
			continue
		}

		field, value := parseSSELine(line)
		switch field {
		case "data":
			if event.hasData {
				event.Data += "\n" + value
			} else {
				event.Data = value
				event.hasData = true
			}
		case "event":
			event.Event = value
		case "id":
			event.ID = value
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended; return the last record if present
	if event.hasData || hasComment {
		return &event, nil
	}
	return nil, io.EOF
}

// Close releases the underlying stream.
func (r *reader) Close() error {
	return r.body.Close()
}

// parseSSELine parses a single SSE line into field and value.
func parseSSELine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	// A single space after the colon is not part of the value.
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
