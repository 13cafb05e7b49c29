// Package browser opens verification URLs for interactive login.
package browser

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned when no opener is known for the platform
var ErrUnsupported = errors.New("no browser opener for this platform")

// start is swapped in tests
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Command returns the opener program and arguments for url on goos.
// BROWSER, when set, wins over the platform default.
func Command(goos, url string) (string, []string, error) {
	if b := strings.TrimSpace(os.Getenv("BROWSER")); b != "" {
		return b, []string{url}, nil
	}

	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		if _, err := exec.LookPath("wslview"); err == nil {
			return "wslview", []string{url}, nil
		}
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, ErrUnsupported
}

// Open opens url in the default browser without waiting for it.
func Open(url string) error {
	name, args, err := Command(runtime.GOOS, url)
	if err != nil {
		return err
	}
	return start(name, args...)
}
