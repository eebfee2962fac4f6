package camera

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/dudu/camview/internal/frame"
	"github.com/dudu/camview/internal/logging"
)

var log = logging.DefaultLogger.WithTag("camera")

// ErrReadFailed marks a single failed acquisition. One bad read is not
// fatal; callers are expected to retry.
var ErrReadFailed = errors.New("failed to read frame from camera")

// Defaults used when Config fields are left zero.
const (
	DefaultWidth  = 1366
	DefaultHeight = 768
	DefaultFPS    = 360
	DefaultCodec  = "MJPG"
)

// Config holds the requested capture parameters. The device may deliver
// less than requested; see Open.
type Config struct {
	Width  int
	Height int
	FPS    float64
	Codec  string
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Codec == "" {
		c.Codec = DefaultCodec
	}
	return c
}

// normalizeCodec upper-cases and length-checks a fourcc tag like "mjpg".
func normalizeCodec(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 4 {
		return "", errors.Errorf("codec must be a four character code, got %q", s)
	}
	return s, nil
}

// Capture manages webcam capture
type Capture struct {
	webcam   *gocv.VideoCapture
	deviceID int
	width    int
	height   int
	fps      float64
	seq      uint64
	mu       sync.Mutex
}

// Open opens the capture device and applies the requested parameters.
// Parameters the camera cannot honor are a warning, not an error: the
// capture proceeds with whatever the device reports back.
func Open(deviceID int, cfg Config) (*Capture, error) {
	cfg = cfg.withDefaults()
	codec, err := normalizeCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}

	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open camera %d", deviceID)
	}

	// Set camera properties
	webcam.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	webcam.Set(gocv.VideoCaptureFPS, cfg.FPS)
	webcam.Set(gocv.VideoCaptureFOURCC, webcam.ToCodec(codec))

	// Get actual values (camera may not support the requested settings)
	actualWidth := int(webcam.Get(gocv.VideoCaptureFrameWidth))
	actualHeight := int(webcam.Get(gocv.VideoCaptureFrameHeight))
	actualFPS := webcam.Get(gocv.VideoCaptureFPS)

	if actualFPS > 0 && actualFPS < cfg.FPS {
		log.Warn("requested %g fps exceeds camera capability (%g fps)", cfg.FPS, actualFPS)
	}
	if (actualWidth > 0 && actualWidth != cfg.Width) || (actualHeight > 0 && actualHeight != cfg.Height) {
		log.Warn("requested %dx%d, camera delivers %dx%d", cfg.Width, cfg.Height, actualWidth, actualHeight)
	}

	return &Capture{
		webcam:   webcam,
		deviceID: deviceID,
		width:    actualWidth,
		height:   actualHeight,
		fps:      actualFPS,
	}, nil
}

// Read blocks until the device delivers the next frame. The returned frame
// owns its pixel buffer; the caller must Close it when done.
func (c *Capture) Read() (*frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil, ErrReadFailed
	}

	mat := gocv.NewMat()
	if ok := c.webcam.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrReadFailed
	}

	c.seq++
	return &frame.Frame{
		Mat:        mat,
		Width:      mat.Cols(),
		Height:     mat.Rows(),
		Seq:        c.seq,
		CapturedAt: time.Now(),
	}, nil
}

// Width returns the frame width the device actually delivers
func (c *Capture) Width() int {
	return c.width
}

// Height returns the frame height the device actually delivers
func (c *Capture) Height() int {
	return c.height
}

// FPS returns the frame rate the device reports
func (c *Capture) FPS() float64 {
	return c.fps
}

// Close releases the camera. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam != nil {
		err := c.webcam.Close()
		c.webcam = nil
		return err
	}
	return nil
}
