package utils

import "github.com/google/uuid"

// NewID returns an opaque identifier for newly registered users.
func NewID() string { return uuid.NewString() }
