package session

// FlowError is a form-level failure carrying the server's message.
// errors.Is matches both Kind (one of the internal/errors sentinels) and the underlying API error.
type FlowError struct {
	Kind    error
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
