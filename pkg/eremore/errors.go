package eremore

import "errors"

// Configuration errors. These are returned before any pixel is touched.
var (
	ErrDuplicateStage    = errors.New("duplicate stage name")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrInvalidCFAPattern = errors.New("invalid CFA pattern")
	ErrUnknownEngine     = errors.New("unknown engine")
)

// ErrShapeMismatch is returned when a stage receives a buffer it cannot process,
// for example a three-channel image handed to a demosaicer.
var ErrShapeMismatch = errors.New("buffer shape mismatch")

// ErrNumericDomain marks misconfigured levels or statistics that would
// produce non-finite values (zero ranges, zero means, non-positive gamma).
var ErrNumericDomain = errors.New("numeric domain error")

// Boundary errors.
var (
	ErrDecode            = errors.New("decoding failed")
	ErrWrite             = errors.New("writing failed")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
