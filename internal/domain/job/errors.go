package job

import "errors"

// ErrInvalidInput indicates a required input field is missing.
var ErrInvalidInput = errors.New("invalid input")
