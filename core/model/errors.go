package model

import "errors"

// ErrConfiguration is returned for invalid entities or references: zero
// capacity, duplicate positions in a pattern, inverted job windows, unknown
// names and the like. Callers test it with errors.Is.
var ErrConfiguration = errors.New("configuration error")
