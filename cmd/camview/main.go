package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/dudu/camview/internal/camera"
	"github.com/dudu/camview/internal/session"
	"github.com/dudu/camview/internal/ui"
)

func init() {
	// Lock the main goroutine to the main OS thread.
	// This is required on macOS for OpenCV's highgui (window creation).
	runtime.LockOSThread()
}

var (
	flagDevice   int
	flagWidth    int
	flagHeight   int
	flagFPS      float64
	flagCodec    string
	flagWindowed bool
	flagTitle    string
	flagHelp     bool
)

func init() {
	flag.IntVarP(&flagDevice, "device", "d", 0, "Camera device index")
	flag.IntVarP(&flagWidth, "width", "x", camera.DefaultWidth, "Requested frame width")
	flag.IntVarP(&flagHeight, "height", "y", camera.DefaultHeight, "Requested frame height")
	flag.Float64VarP(&flagFPS, "fps", "f", camera.DefaultFPS, "Requested frame rate")
	flag.StringVar(&flagCodec, "codec", camera.DefaultCodec, "Capture fourcc, e.g. MJPG or YUYV")
	flag.BoolVarP(&flagWindowed, "windowed", "w", false, "Run in a window instead of fullscreen")
	flag.StringVar(&flagTitle, "title", "Video Capture", "Window title")
	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
}

func main() {
	flag.Parse()

	if flagHelp {
		fmt.Println("camview - live camera preview")
		fmt.Println("")
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Printf("Opening camera %d...\n", flagDevice)
	cam, err := camera.Open(flagDevice, camera.Config{
		Width:  flagWidth,
		Height: flagHeight,
		FPS:    flagFPS,
		Codec:  flagCodec,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Camera %d initialized at %dx%d @ %g FPS\n",
		flagDevice, cam.Width(), cam.Height(), cam.FPS())

	window := ui.NewWindow(flagTitle, !flagWindowed)

	// The session owns teardown of both collaborators from here on.
	sess := session.New(cam, window, session.Config{})

	// Ctrl-C behaves like the quit key.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		sess.RequestStop()
	}()

	fmt.Println("Running... Press 'q' to quit")
	return sess.Run()
}
