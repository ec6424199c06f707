package capture

import "errors"

// Platform failures. Each one maps to a recoverable instruction for the user.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnsupported       = errors.New("not supported on this device")
	ErrTimeout           = errors.New("timed out")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrCameraBusy        = errors.New("camera already in use")
)

// Camera sub-flow misuse.
var (
	ErrNotStreaming = errors.New("camera is not streaming")
	ErrCameraClosed = errors.New("camera closed before the stream started")
	ErrStreamClosed = errors.New("stream closed")
)

// Submission guards. None of these reach the network.
var (
	ErrNoLocation        = errors.New("location fix required")
	ErrNoPhoto           = errors.New("photo required")
	ErrSubmitPending     = errors.New("a submission is already in progress")
	ErrActionUnavailable = errors.New("action not available for the current status")
	ErrInvalidWorkStatus = errors.New("invalid work status")
)
