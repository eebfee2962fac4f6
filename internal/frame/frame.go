package frame

import (
	"time"

	"gocv.io/x/gocv"
)

// Frame is one image captured from the device, plus its metadata. The pixel
// buffer is owned by the Frame and must not be mutated after production;
// whoever ends up holding the Frame last must Close it.
type Frame struct {
	Mat        gocv.Mat
	Width      int
	Height     int
	Seq        uint64
	CapturedAt time.Time
}

// Close releases the pixel buffer.
func (f *Frame) Close() {
	f.Mat.Close()
}
