package core

import (
	"errors"
)

var (
	ErrUnknown = errors.New("unknown")

	// track configuration
	ErrInvalidTrack    = errors.New("invalid track")
	ErrKeyframeOrder   = errors.New("keyframes are not sorted by entry")
	ErrKeyframeOverlap = errors.New("keyframe ranges overlap")
	ErrUnknownPart     = errors.New("unknown part")
	ErrFollowCycle     = errors.New("part follow chain forms a cycle")
	ErrNonFinite       = errors.New("value is not finite")

	// runtime
	ErrUnknownAnchor     = errors.New("anchor node not found in scene graph")
	ErrUnknownTarget     = errors.New("unknown focus target")
	ErrInvalidTransition = errors.New("invalid mode transition")
	ErrDisposed          = errors.New("driver already disposed")
	ErrStaleHandle       = errors.New("scene handle is stale")
	ErrDuplicateNode     = errors.New("scene node name already registered")

	// assets
	ErrUnsupportedFormat = errors.New("unsupported rig file format")

	// containers
	ErrQueueFull  = errors.New("queue is full")
	ErrQueueEmpty = errors.New("queue is empty")
)
