package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWithSuggestion(t *testing.T) {
	base := errors.New("boom")
	err := WithSuggestion(base, "try again")

	if !errors.Is(err, base) {
		t.Error("WithSuggestion() does not unwrap to the base error")
	}
	if got := GetSuggestion(err); got != "try again" {
		t.Errorf("GetSuggestion() = %q, want %q", got, "try again")
	}
}

func TestGetSuggestionSentinels(t *testing.T) {
	tests := []struct {
		err      error
		contains string
	}{
		{fmt.Errorf("load: %w", ErrUnsupportedFormat), "mp3"},
		{ErrDaemonUnreachable, "spindle serve"},
		{ErrInvalidIndex, "spindle playlist"},
		{ErrConfigNotFound, "config init"},
		{ErrEngineUnavailable, "sound device"},
	}
	for _, tt := range tests {
		got := GetSuggestion(tt.err)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("GetSuggestion(%v) = %q, want it to contain %q", tt.err, got, tt.contains)
		}
	}
}

func TestGetSuggestionNone(t *testing.T) {
	if got := GetSuggestion(nil); got != "" {
		t.Errorf("GetSuggestion(nil) = %q, want empty", got)
	}
	if got := GetSuggestion(errors.New("something odd")); got != "" {
		t.Errorf("GetSuggestion(unknown) = %q, want empty", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
	got := Format(WithSuggestion(errors.New("bad"), "fix it"))
	want := "Error: bad\n\nSuggestion: fix it"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got := Format(errors.New("plain")); got != "Error: plain" {
		t.Errorf("Format() = %q, want %q", got, "Error: plain")
	}
}

func TestPartialResult(t *testing.T) {
	var r PartialResult[[]string]
	r.AddError(nil)
	if r.HasErrors() {
		t.Error("HasErrors() = true after AddError(nil)")
	}

	r.AddError(errors.New("first"))
	if got := r.ErrorSummary(); got != "first" {
		t.Errorf("ErrorSummary() = %q, want %q", got, "first")
	}

	r.AddError(errors.New("second"))
	got := r.ErrorSummary()
	if !strings.HasPrefix(got, "2 errors occurred:") {
		t.Errorf("ErrorSummary() = %q, want 2 errors prefix", got)
	}
}
