package porcelain

// Result is the uniform envelope every porcelain operation returns: a
// success flag, a one-line human message, optional structured data, and a
// classified error on failure.
type Result struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

func ok(message string, data any) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

func fail(message string, err error) *Result {
	return &Result{
		Success: false,
		Message: message,
		Error:   &ErrorInfo{Kind: Classify(err), Detail: err.Error()},
	}
}
