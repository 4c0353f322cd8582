package constant

const (
	LogFieldTraceId  = "trace_id"
	LogFieldErr      = "err"
	LogFieldPayload  = "payload"
	LogFieldResponse = "response"
)
