package pkg

const (
	HeaderTraceId        string = "X-Trace-Id"
	HeaderRequestId      string = "X-Request-Id"
	HeaderIdempotencyKey string = "Idempotency-Key"
	HeaderIdempotencyHit string = "X-Idempotency-Hit"
)

const (
	TraceId        string = "trace_id"
	RequestId      string = "request_id"
	IdempotencyKey string = "idempotency_key"
)

// PredictionStatus is the outcome recorded for a single /predict call.
type PredictionStatus string

const (
	PredictionStatusScored PredictionStatus = "scored"
	PredictionStatusFailed PredictionStatus = "failed"
)
