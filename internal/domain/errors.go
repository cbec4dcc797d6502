package domain

import "errors"

var ErrNotFound = errors.New("not found")

var (
	ErrNoFileSelected      = errors.New("no file selected")
	ErrNotRunning          = errors.New("sharing is not running")
	ErrBind                = errors.New("bind failed")
	ErrShutdown            = errors.New("shutdown failed")
	ErrRangeRequired       = errors.New("range required")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)
