package repository

import "errors"

// ErrDuplicate is returned when an insert hits a UNIQUE or PRIMARY KEY
// constraint
var ErrDuplicate = errors.New("duplicate record")
