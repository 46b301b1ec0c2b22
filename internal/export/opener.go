package export

import (
	"context"
	"runtime"

	"github.com/chaz8081/gostt-scribe/internal/executor"
)

// Opener shows a saved file to the operator with the platform's default
// application.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// NopOpener does nothing; used where no desktop is available.
type NopOpener struct{}

func (NopOpener) Open(context.Context, string) error { return nil }

// SystemOpener hands the file to open(1), xdg-open(1) or cmd's start. The
// handler is launched and left running; Open does not wait for it.
type SystemOpener struct {
	Exec executor.Executor
	GOOS string // defaults to runtime.GOOS
}

func (o SystemOpener) Open(_ context.Context, path string) error {
	name, args := openCommand(o.goos(), path)
	return o.Exec.Start(name, args...)
}

func (o SystemOpener) goos() string {
	if o.GOOS != "" {
		return o.GOOS
	}
	return runtime.GOOS
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}

// DesktopOpener returns a SystemOpener when a desktop session looks
// available, and NopOpener otherwise.
func DesktopOpener(exec executor.Executor, getenv func(string) string) Opener {
	switch runtime.GOOS {
	case "darwin", "windows":
		return SystemOpener{Exec: exec}
	}
	if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
		return NopOpener{}
	}
	if _, err := exec.LookPath("xdg-open"); err != nil {
		return NopOpener{}
	}
	return SystemOpener{Exec: exec}
}
