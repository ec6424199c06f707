package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"

	"github.com/disintegration/imaging"
)

// Camera grants video streams. A granted stream holds the device until it is
// closed.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live video stream.
type Stream interface {
	// Ready is closed once the stream emits its first frame.
	Ready() <-chan struct{}
	// Frame returns the current frame.
	Frame() (image.Image, error)
	// Close releases the device. It is safe to call more than once.
	Close() error
}

type CameraState string

const (
	CameraIdle       CameraState = "idle"
	CameraRequesting CameraState = "requesting"
	CameraStreaming  CameraState = "streaming"
	CameraCaptured   CameraState = "captured"
	CameraError      CameraState = "error"
)

// CameraSession drives one capture surface through
// idle -> requesting -> streaming -> captured. Every path out of a live
// stream (capture, close, error, cancelled open) releases the device.
type CameraSession struct {
	camera Camera
	opts   PhotoOptions

	mu     sync.Mutex
	state  CameraState
	gen    uint64
	stream Stream
	abort  chan struct{}
	photo  *Photo
	err    error
}

func NewCameraSession(camera Camera, opts PhotoOptions) *CameraSession {
	return &CameraSession{camera: camera, opts: opts, state: CameraIdle}
}

// Open requests a stream and waits for its first frame. Opening an already
// live session is a no-op. Any previously captured photo is discarded.
func (c *CameraSession) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state == CameraRequesting || c.state == CameraStreaming {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	abort := make(chan struct{})
	c.abort = abort
	c.photo = nil
	c.err = nil
	c.state = CameraRequesting
	c.mu.Unlock()

	stream, err := c.camera.Open(ctx)
	if err != nil {
		c.fail(gen, err)
		return fmt.Errorf("open camera: %w", err)
	}

	select {
	case <-stream.Ready():
	case <-abort:
		stream.Close()
		return ErrCameraClosed
	case <-ctx.Done():
		stream.Close()
		c.fail(gen, ctx.Err())
		return fmt.Errorf("open camera: %w", ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		stream.Close()
		return ErrCameraClosed
	}
	c.stream = stream
	c.state = CameraStreaming
	return nil
}

// Capture freezes the current frame, stops the stream and keeps the photo.
func (c *CameraSession) Capture() (*Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CameraStreaming || c.stream == nil {
		return nil, ErrNotStreaming
	}
	frame, err := c.stream.Frame()
	c.releaseLocked()
	if err != nil {
		c.state = CameraError
		c.err = err
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	photo, err := EncodePhoto(frame, c.opts)
	if err != nil {
		c.state = CameraError
		c.err = err
		return nil, err
	}
	c.photo = photo
	c.state = CameraCaptured
	return photo, nil
}

// Retake discards the captured photo and requests a new stream.
func (c *CameraSession) Retake(ctx context.Context) error {
	c.mu.Lock()
	c.photo = nil
	c.mu.Unlock()
	return c.Open(ctx)
}

// Close stops any live or pending stream. A captured photo survives so it
// can still be submitted.
func (c *CameraSession) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.abort != nil {
		close(c.abort)
		c.abort = nil
	}
	err := c.releaseLocked()
	if c.state != CameraCaptured {
		c.state = CameraIdle
		c.err = nil
	}
	return err
}

// Discard drops the captured photo, e.g. after a successful submission.
func (c *CameraSession) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.photo = nil
	if c.state == CameraCaptured {
		c.state = CameraIdle
	}
}

func (c *CameraSession) State() CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *CameraSession) Photo() *Photo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.photo
}

// Err returns the failure that put the session in the error state.
func (c *CameraSession) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Active reports whether the session currently holds a stream.
func (c *CameraSession) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func (c *CameraSession) fail(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.state = CameraError
	c.err = err
}

func (c *CameraSession) releaseLocked() error {
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	return err
}

// ExclusiveCamera admits one stream at a time. A stream that is never closed
// keeps every later Open failing with ErrCameraBusy.
type ExclusiveCamera struct {
	camera Camera
	slot   chan struct{}
}

func Exclusive(camera Camera) *ExclusiveCamera {
	return &ExclusiveCamera{camera: camera, slot: make(chan struct{}, 1)}
}

func (e *ExclusiveCamera) Open(ctx context.Context) (Stream, error) {
	select {
	case e.slot <- struct{}{}:
	default:
		return nil, ErrCameraBusy
	}
	s, err := e.camera.Open(ctx)
	if err != nil {
		<-e.slot
		return nil, err
	}
	return &exclusiveStream{Stream: s, release: func() { <-e.slot }}, nil
}

type exclusiveStream struct {
	Stream
	once    sync.Once
	release func()
}

func (s *exclusiveStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.Stream.Close()
		s.release()
	})
	return err
}

// FileCamera serves a still image from disk as a one-frame stream. It stands
// in for a webcam on machines without one.
type FileCamera struct {
	Path string
}

func (f FileCamera) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Path == "" {
		return nil, fmt.Errorf("no photo source configured: %w", ErrCameraUnavailable)
	}
	img, err := imaging.Open(f.Path, imaging.AutoOrientation(true))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("photo source %s: %w", f.Path, ErrCameraUnavailable)
	}
	if errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("photo source %s: %w", f.Path, ErrPermissionDenied)
	}
	if err != nil {
		return nil, fmt.Errorf("decode photo source %s: %w", f.Path, err)
	}
	return NewStillStream(img), nil
}

// StillStream is a stream whose every frame is the same image.
type StillStream struct {
	img   image.Image
	ready chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewStillStream(img image.Image) *StillStream {
	ready := make(chan struct{})
	close(ready)
	return &StillStream{img: img, ready: ready}
}

func (s *StillStream) Ready() <-chan struct{} { return s.ready }

func (s *StillStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	return s.img, nil
}

func (s *StillStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
