package services_test

import (
	"context"
	"testing"

	"wildlens/internal/services"
)

func TestRecognitionIDRoundTrip(t *testing.T) {
	ctx := services.WithRecognitionID(context.Background(), "abc-123")
	id, ok := services.RecognitionIDFromContext(ctx)
	if !ok || id != "abc-123" {
		t.Fatalf("got %q ok=%v", id, ok)
	}
	if _, ok := services.RecognitionIDFromContext(context.Background()); ok {
		t.Fatal("unexpected id on bare context")
	}
	if ctx2 := services.WithRecognitionID(context.Background(), ""); ctx2 != context.Background() {
		t.Fatal("empty id should not allocate a value")
	}
}

func TestStageRoundTrip(t *testing.T) {
	ctx := services.WithStage(context.Background(), "vision")
	stage, ok := services.StageFromContext(ctx)
	if !ok || stage != "vision" {
		t.Fatalf("got %q ok=%v", stage, ok)
	}
}
