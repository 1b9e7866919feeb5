package logger

import "context"

const (
	// FieldJobID is the structured key for job identifiers.
	FieldJobID = "job_id"
	// FieldStage is the structured key for pipeline stage names.
	FieldStage = "stage"
)

type ctxKey int

const (
	jobIDKey ctxKey = iota
	stageKey
)

// WithJobID tags ctx so every line logged with it carries the job id.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// WithStage tags ctx with the running pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

func contextFields(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	var fields []interface{}
	if id, ok := ctx.Value(jobIDKey).(string); ok && id != "" {
		fields = append(fields, FieldJobID, id)
	}
	if stage, ok := ctx.Value(stageKey).(string); ok && stage != "" {
		fields = append(fields, FieldStage, stage)
	}
	return fields
}
