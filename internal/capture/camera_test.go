package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geostaff-client/internal/model"
)

type fakeStream struct {
	img   image.Image
	ready chan struct{}

	mu     sync.Mutex
	closes int
}

func (s *fakeStream) Ready() <-chan struct{} { return s.ready }

func (s *fakeStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes > 0 {
		return nil, ErrStreamClosed
	}
	return s.img, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// fakeCamera hands out fakeStreams. With hold set, streams never become ready.
type fakeCamera struct {
	img     image.Image
	hold    bool
	openErr error

	mu      sync.Mutex
	streams []*fakeStream
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{img: testImage(320, 240)}
}

func (c *fakeCamera) Open(ctx context.Context) (Stream, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	s := &fakeStream{img: c.img, ready: make(chan struct{})}
	if !c.hold {
		close(s.ready)
	}
	c.mu.Lock()
	c.streams = append(c.streams, s)
	c.mu.Unlock()
	return s, nil
}

func (c *fakeCamera) opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

// allReleased reports whether every granted stream has been closed.
func (c *fakeCamera) allReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.streams {
		if !s.Closed() {
			return false
		}
	}
	return true
}

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 40, G: 120, B: 200, A: 255})
}

func TestCameraSession_CaptureReleasesStream(t *testing.T) {
	cam := newFakeCamera()
	s := NewCameraSession(cam, PhotoOptions{})

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, CameraStreaming, s.State())
	assert.True(t, s.Active())

	photo, err := s.Capture()
	require.NoError(t, err)
	assert.Equal(t, CameraCaptured, s.State())
	assert.False(t, s.Active())
	assert.True(t, cam.allReleased())
	assert.Equal(t, 320, photo.Width)
	assert.Same(t, photo, s.Photo())
}

func TestCameraSession_OpenTwiceIsNoop(t *testing.T) {
	cam := newFakeCamera()
	s := NewCameraSession(cam, PhotoOptions{})

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, 1, cam.opened())
	require.NoError(t, s.Close())
	assert.True(t, cam.allReleased())
}

func TestCameraSession_CloseWhileRequesting(t *testing.T) {
	cam := newFakeCamera()
	cam.hold = true
	s := NewCameraSession(cam, PhotoOptions{})

	done := make(chan error, 1)
	go func() { done <- s.Open(context.Background()) }()

	require.Eventually(t, func() bool { return cam.opened() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCameraClosed)
	case <-time.After(time.Second):
		t.Fatal("Open did not return after Close")
	}
	assert.True(t, cam.allReleased())
	assert.Equal(t, CameraIdle, s.State())
}

func TestCameraSession_OpenCancelledReleases(t *testing.T) {
	cam := newFakeCamera()
	cam.hold = true
	s := NewCameraSession(cam, PhotoOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.Open(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, CameraError, s.State())
	assert.True(t, cam.allReleased())
}

func TestCameraSession_CloseWhileStreaming(t *testing.T) {
	cam := newFakeCamera()
	s := NewCameraSession(cam, PhotoOptions{})

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, cam.allReleased())
	assert.Equal(t, CameraIdle, s.State())
}

func TestCameraSession_OpenError(t *testing.T) {
	cam := newFakeCamera()
	cam.openErr = ErrPermissionDenied
	s := NewCameraSession(cam, PhotoOptions{})

	err := s.Open(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, CameraError, s.State())
	assert.ErrorIs(t, s.Err(), ErrPermissionDenied)

	require.NoError(t, s.Close())
	assert.Equal(t, CameraIdle, s.State())
	assert.NoError(t, s.Err())
}

func TestCameraSession_CloseKeepsCapturedPhoto(t *testing.T) {
	s := NewCameraSession(newFakeCamera(), PhotoOptions{})
	require.NoError(t, s.Open(context.Background()))
	_, err := s.Capture()
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Equal(t, CameraCaptured, s.State())
	assert.NotNil(t, s.Photo())

	s.Discard()
	assert.Nil(t, s.Photo())
	assert.Equal(t, CameraIdle, s.State())
}

func TestCameraSession_Retake(t *testing.T) {
	cam := newFakeCamera()
	s := NewCameraSession(cam, PhotoOptions{})
	require.NoError(t, s.Open(context.Background()))
	_, err := s.Capture()
	require.NoError(t, err)

	require.NoError(t, s.Retake(context.Background()))
	assert.Nil(t, s.Photo())
	assert.Equal(t, CameraStreaming, s.State())
	assert.Equal(t, 2, cam.opened())

	require.NoError(t, s.Close())
	assert.True(t, cam.allReleased())
}

func TestCameraSession_CaptureRequiresStream(t *testing.T) {
	s := NewCameraSession(newFakeCamera(), PhotoOptions{})
	_, err := s.Capture()
	assert.ErrorIs(t, err, ErrNotStreaming)
}

// captureOnce opens a session, takes one frame and closes it.
func captureOnce(ctx context.Context, camera Camera, opts PhotoOptions) (*Photo, error) {
	s := NewCameraSession(camera, opts)
	defer s.Close()
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s.Capture()
}

// assertFree checks that nothing holds the device by acquiring it again.
func assertFree(t *testing.T, ex *ExclusiveCamera) {
	t.Helper()
	s, err := ex.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestExclusiveCamera(t *testing.T) {
	ex := Exclusive(newFakeCamera())
	ctx := context.Background()

	s1, err := ex.Open(ctx)
	require.NoError(t, err)

	_, err = ex.Open(ctx)
	assert.ErrorIs(t, err, ErrCameraBusy)

	require.NoError(t, s1.Close())
	require.NoError(t, s1.Close())
	assertFree(t, ex)
}

func TestExclusiveCamera_SessionsReleaseOnEveryPath(t *testing.T) {
	inner := newFakeCamera()
	ex := Exclusive(inner)
	ctx := context.Background()

	// capture
	photo, err := captureOnce(ctx, ex, PhotoOptions{MaxWidth: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, photo.Width)
	assert.Equal(t, 75, photo.Height)
	assertFree(t, ex)

	// cancel while streaming
	s := NewCameraSession(ex, PhotoOptions{})
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Close())
	assertFree(t, ex)

	// cancel while requesting
	inner.hold = true
	s = NewCameraSession(ex, PhotoOptions{})
	done := make(chan error, 1)
	go func() { done <- s.Open(ctx) }()
	require.Eventually(t, func() bool { return inner.opened() == 5 }, time.Second, time.Millisecond)
	require.NoError(t, s.Close())
	<-done
	assertFree(t, ex)
	assert.True(t, inner.allReleased())
}

func TestEncodePhoto(t *testing.T) {
	photo, err := EncodePhoto(testImage(1280, 960), PhotoOptions{MaxWidth: 640, Quality: 70})
	require.NoError(t, err)
	assert.Equal(t, 640, photo.Width)
	assert.Equal(t, 480, photo.Height)
	require.Greater(t, len(photo.Data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, photo.Data[:2])
	assert.Contains(t, photo.DataURL(), "data:image/jpeg;base64,")

	small, err := EncodePhoto(testImage(200, 100), PhotoOptions{MaxWidth: 640})
	require.NoError(t, err)
	assert.Equal(t, 200, small.Width)

	_, err = EncodePhoto(nil, PhotoOptions{})
	assert.Error(t, err)
}

func TestFileCamera(t *testing.T) {
	_, err := FileCamera{Path: filepath.Join(t.TempDir(), "missing.png")}.Open(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)

	_, err = FileCamera{}.Open(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)

	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, imaging.Save(testImage(64, 48), path))

	photo, err := captureOnce(context.Background(), FileCamera{Path: path}, PhotoOptions{})
	require.NoError(t, err)
	assert.Equal(t, 64, photo.Width)
	assert.Equal(t, 48, photo.Height)
}

func TestStaticLocator(t *testing.T) {
	ctx := context.Background()

	_, err := StaticLocator{}.Locate(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = StaticLocator{Err: ErrPermissionDenied}.Locate(ctx)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = StaticLocator{Fix: &testFix}.Locate(ctx)
	require.NoError(t, err)

	bad := testFix
	bad.Latitude = 91
	_, err = StaticLocator{Fix: &bad}.Locate(ctx)
	assert.Error(t, err)
}

func TestWithTimeout(t *testing.T) {
	stuck := make(chan struct{})
	defer close(stuck)
	l := WithTimeout(LocatorFunc(func(ctx context.Context) (loc model.Location, err error) {
		<-stuck
		return loc, errors.New("unreachable")
	}), 10*time.Millisecond)

	_, err := l.Locate(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsPlatformError(err))
}
