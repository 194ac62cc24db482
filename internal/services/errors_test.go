package services_test

import (
	"errors"
	"strings"
	"testing"

	"wildlens/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("socket closed")
	err := services.Wrap(services.ErrUnavailable, "plantid", "identify", "request failed", base)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "plantid: identify: request failed") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "vision", "annotate", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient fallback, got %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestDegradable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"unavailable", services.Wrap(services.ErrUnavailable, "kg", "lookup", "", nil), true},
		{"timeout", services.ErrTimeout, true},
		{"quota", services.ErrQuotaExceeded, true},
		{"configuration", services.Wrap(services.ErrConfiguration, "vision", "annotate", "missing key", nil), false},
		{"validation", services.ErrValidation, false},
	}
	for _, tc := range cases {
		if got := services.Degradable(tc.err); got != tc.want {
			t.Errorf("%s: Degradable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
