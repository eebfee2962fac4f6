package ui

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/dudu/camview/internal/frame"
)

// Window manages the preview display
type Window struct {
	window     *gocv.Window
	name       string
	lastFrame  time.Time
	frameCount int
	fps        float64
}

// NewWindow creates the preview window, fullscreen unless windowed mode was
// requested.
func NewWindow(name string, fullscreen bool) *Window {
	window := gocv.NewWindow(name)
	if fullscreen {
		window.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
	} else {
		// Force window to appear on macOS
		window.ResizeWindow(1280, 720)
		window.MoveWindow(100, 100)
	}
	return &Window{
		window:    window,
		name:      name,
		lastFrame: time.Now(),
	}
}

// Show displays a frame and updates the FPS counter. The frame is borrowed
// only for the duration of the call; the caller still owns it afterwards.
func (w *Window) Show(f *frame.Frame) {
	w.frameCount++
	now := time.Now()

	// Calculate FPS every second
	elapsed := now.Sub(w.lastFrame)
	if elapsed >= time.Second {
		w.fps = float64(w.frameCount) / elapsed.Seconds()
		w.frameCount = 0
		w.lastFrame = now
	}

	// Draw FPS on frame
	fpsText := fmt.Sprintf("FPS: %.1f", w.fps)
	gocv.PutText(&f.Mat, fpsText, image.Pt(10, 30),
		gocv.FontHersheyPlain, 2, color.RGBA{R: 0, G: 255, B: 0, A: 255}, 2)

	w.window.IMShow(f.Mat)
}

// PollKey pumps window events and returns the pressed key code, or -1.
// WaitKey must be called regularly to process window events on macOS.
func (w *Window) PollKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// FPS returns current frames per second
func (w *Window) FPS() float64 {
	return w.fps
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		err := w.window.Close()
		w.window = nil
		return err
	}
	return nil
}
