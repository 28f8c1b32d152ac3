package core

import (
	"errors"
)

var (
	// The platform rejected window or context creation.
	ErrInitialization = errors.New("video initialization failed")

	// A mandatory capability, such as shader support, is missing.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	ErrUnsupportedUniformType = errors.New("unsupported uniform type")

	// Asset bytes were missing or could not be decoded.
	ErrResourceLoad = errors.New("resource load failed")

	// The native context went away. Always fatal to the session.
	ErrContextLost = errors.New("rendering context lost")

	ErrDeinitialized        = errors.New("video output already deinitialized")
	ErrRenderTargetNotBound = errors.New("render target is not the currently bound target")
)
