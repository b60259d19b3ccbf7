package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("New(%q) failed: %v", level, err)
		}
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("shouting"); err == nil {
		t.Fatal("Expected an error for an unknown level")
	}
}
