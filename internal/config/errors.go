package config

import "errors"

// ErrInvalid indicates a configuration value failed validation.
var ErrInvalid = errors.New("invalid configuration")
