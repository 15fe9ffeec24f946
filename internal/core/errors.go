package core

import "github.com/pkg/errors"

// Failure kinds reported by the pipeline stages. Stages wrap these with
// context; callers match them with errors.Is.
var (
	ErrEmptyMask          = errors.New("mask has no foreground pixels")
	ErrDegenerateRange    = errors.New("value range is degenerate (max == min)")
	ErrInsufficientLeaves = errors.New("skeleton has fewer than two endpoints")
	ErrEmptyCandidateSet  = errors.New("no valid candidate paths")
	ErrShapeMismatch      = errors.New("input shapes do not match")
	ErrNoPath             = errors.New("no path between skeleton endpoints")
	ErrNoIntersection     = errors.New("line does not intersect the bounds")
)
