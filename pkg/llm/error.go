package llm

import "errors"

// ErrCompletion indicates a completion request failed or returned nothing
// usable.
var ErrCompletion = errors.New("completion error")
