package services

import "context"

type contextKey string

const (
	recognitionIDKey contextKey = "recognition_id"
	stageKey         contextKey = "stage"
)

// WithRecognitionID annotates context with the recognition request identifier.
func WithRecognitionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, recognitionIDKey, id)
}

// RecognitionIDFromContext extracts the recognition identifier if present.
func RecognitionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(recognitionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
