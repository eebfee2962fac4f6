package session

import "github.com/dudu/camview/internal/frame"

// FrameSource is the capture device as the session sees it. Read blocks
// until the device delivers the next frame and transfers ownership of it
// to the caller.
type FrameSource interface {
	Read() (*frame.Frame, error)
	Close() error
}

// DisplaySurface is the window as the session sees it. Show borrows the
// frame only for the duration of the call. PollKey pumps window events and
// reports a pressed key, or a negative value when none. Both must be called
// from the goroutine that runs the display loop.
type DisplaySurface interface {
	Show(f *frame.Frame)
	PollKey(delayMs int) int
	Close() error
}
