package formats

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoquery/types"
)

func TestRegister(t *testing.T) {
	originalRegistry := registry
	defer func() { registry = originalRegistry }()
	registry = make(map[string]*ResultFormat)

	render := func(io.Writer, []types.Document) error { return nil }
	tests := []struct {
		name     string
		format   *ResultFormat
		errorMsg string
	}{
		{
			name:   "valid format",
			format: &ResultFormat{Name: "test-format", Extension: "test", Render: render},
		},
		{
			name:     "invalid name with uppercase",
			format:   &ResultFormat{Name: "TestFormat", Render: render},
			errorMsg: "invalid format name",
		},
		{
			name:     "empty name",
			format:   &ResultFormat{Render: render},
			errorMsg: "invalid format name",
		},
		{
			name:     "no renderer",
			format:   &ResultFormat{Name: "bare"},
			errorMsg: "no renderer",
		},
		{
			name:     "duplicate",
			format:   &ResultFormat{Name: "test-format", Render: render},
			errorMsg: "already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Register(tt.format)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("Register() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Register() error = %v, want %q", err, tt.errorMsg)
			}
		})
	}

	f, err := Get("test-format")
	if err != nil || f.Extension != ".test" {
		t.Errorf("Get() = %+v, %v", f, err)
	}
}

func TestBuiltinFormats(t *testing.T) {
	if diff := cmp.Diff([]string{"json", "markdown", "plaintext", "yaml"}, List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if _, err := Get("xml"); err == nil || !strings.Contains(err.Error(), "available: json") {
		t.Errorf("Get(xml) error = %v", err)
	}
}
