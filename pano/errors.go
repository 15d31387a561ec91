// Package pano implements the two wide-angle correction strategies: an
// offscreen one-shot/per-frame pass writing a corrected render target,
// and a realtime variant mapping per fragment at draw time.
package pano

import (
	"errors"
	"fmt"
)

// Failure categories raised synchronously from CreateMesh. Match with
// errors.Is; the wrapped message names the offending input.
var (
	// ErrUnsupportedSource: cube texture, or a video source passed to the
	// static-image projection.
	ErrUnsupportedSource = errors.New("unsupported source kind")
	// ErrDimensionExceedsLimit: an input or output dimension is larger
	// than the device's maximum texture size.
	ErrDimensionExceedsLimit = errors.New("dimension exceeds device limit")
	// ErrResourceAllocation: a GPU object could not be created. Never
	// retried; surfaced as a hard construction failure.
	ErrResourceAllocation = errors.New("resource allocation failed")
)

// checkDimension validates one named dimension against the device limit.
func checkDimension(name string, value, limit int) error {
	if value > limit {
		return fmt.Errorf("%w: %s %d exceeds max texture size %d",
			ErrDimensionExceedsLimit, name, value, limit)
	}
	return nil
}
