package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/kbukum/evtsrc/errors"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		chunk  Chunk
		asJSON bool
		want   string
	}{
		{"data only", Chunk{Data: "test"}, false, "data: test\n\n"},
		{"event and data", Chunk{EventName: "foo", Data: "bar"}, false, "event: foo\ndata: bar\n\n"},
		{"comment only", Chunk{Comment: "ping"}, false, ":ping\n\n"},
		{"multi-line comment", Chunk{Comment: "a\nb"}, false, ":a\n:b\n\n"},
		{"all fields", Chunk{Comment: "c", EventName: "e", Data: "d"}, false, ":c\nevent: e\ndata: d\n\n"},
		{"event name newlines collapse", Chunk{EventName: " up\ndate ", Data: "x"}, false, "event: up date\ndata: x\n\n"},
		{"multi-line data", Chunk{Data: "l1\nl2\nl3"}, false, "data: l1\ndata: l2\ndata: l3\n\n"},
		{"json string", Chunk{Data: "test"}, true, "data: \"test\"\n\n"},
		{"json object", Chunk{Data: map[string]any{"a": 1}}, true, "data: {\"a\":1}\n\n"},
		{"json keeps html", Chunk{Data: "<b>"}, true, "data: \"<b>\"\n\n"},
		{"non-string data is serialized", Chunk{Data: 42}, false, "data: 42\n\n"},
		{"event only", Chunk{EventName: "tick"}, false, "event: tick\n\n"},
		{"empty chunk", Chunk{}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.chunk, tt.asJSON)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_UnencodableData(t *testing.T) {
	_, err := Format(Chunk{Data: make(chan int)}, true)
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	chunks := []Chunk{
		{Data: "plain"},
		{EventName: "update", Data: "payload"},
		{Comment: "note", EventName: "update", Data: "payload"},
		{Comment: "only"},
	}

	var wire strings.Builder
	for _, c := range chunks {
		s, err := Format(c, false)
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		wire.WriteString(s)
	}

	r := NewReader(newMockBody(wire.String()))
	defer r.Close()

	for i, want := range chunks {
		ev, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: unexpected error: %v", i, err)
		}
		if ev.Event != want.EventName {
			t.Errorf("record %d: event = %q, want %q", i, ev.Event, want.EventName)
		}
		wantData, _ := want.Data.(string)
		if ev.Data != wantData {
			t.Errorf("record %d: data = %q, want %q", i, ev.Data, wantData)
		}
		if ev.HasData() != want.HasData() {
			t.Errorf("record %d: HasData = %v, want %v", i, ev.HasData(), want.HasData())
		}
		if ev.Comment != want.Comment {
			t.Errorf("record %d: comment = %q, want %q", i, ev.Comment, want.Comment)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFormat_MultiLineReassembly(t *testing.T) {
	inputs := []string{"a\nb", "first\n\nthird", "trailing\n", "\nleading"}

	for _, in := range inputs {
		out, err := Format(Chunk{Data: in}, false)
		if err != nil {
			t.Fatalf("Format(%q) failed: %v", in, err)
		}

		var parts []string
		for _, line := range strings.Split(strings.TrimSuffix(out, "\n\n"), "\n") {
			if !strings.HasPrefix(line, "data: ") {
				t.Fatalf("Format(%q) produced non-data line %q", in, line)
			}
			parts = append(parts, strings.TrimPrefix(line, "data: "))
		}
		if len(parts) != strings.Count(in, "\n")+1 {
			t.Errorf("Format(%q) produced %d data lines", in, len(parts))
		}
		if got := strings.Join(parts, "\n"); got != in {
			t.Errorf("reassembled %q, want %q", got, in)
		}
	}
}

func TestChunkValidate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		asJSON  bool
		wantErr bool
	}{
		{"empty", Chunk{}, false, true},
		{"empty in json mode", Chunk{}, true, true},
		{"empty string data", Chunk{Data: ""}, false, true},
		{"string data", Chunk{Data: "x"}, false, false},
		{"object without json", Chunk{Data: map[string]any{"a": 1}}, false, true},
		{"object with json", Chunk{Data: map[string]any{"a": 1}}, true, false},
		{"comment", Chunk{Comment: "c"}, false, false},
		{"event only", Chunk{EventName: "e"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate(tt.asJSON)
			if tt.wantErr {
				if !errors.IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEOSMarker(t *testing.T) {
	if err := ValidateEOSMarker(Chunk{Data: "EOS"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, marker := range []Chunk{{}, {EventName: "end"}, {Data: ""}} {
		if err := ValidateEOSMarker(marker); !errors.IsConfiguration(err) {
			t.Errorf("ValidateEOSMarker(%+v) = %v, want configuration error", marker, err)
		}
	}
}
