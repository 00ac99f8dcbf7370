package core

import "errors"

var ErrNotFound = errors.New("store: not found")
