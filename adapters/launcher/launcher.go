package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
)

// apps maps a spoken application name to per-OS executables
var apps = map[string]map[string]string{
	"chrome": {
		"linux":   "google-chrome",
		"darwin":  "Google Chrome",
		"windows": "chrome",
	},
}

// runner executes a command; replaced in tests
type runner func(ctx context.Context, name string, args ...string) error

func startDetached(ctx context.Context, name string, args ...string) error {
	// the process outlives the request that started it
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// Desktop opens URLs in the default browser and starts local applications
type Desktop struct {
	goos   string
	run    runner
	logger *zap.Logger
}

var _ repositories.Launcher = (*Desktop)(nil)

// NewDesktop creates a launcher for the running OS
func NewDesktop(logger *zap.Logger) *Desktop {
	return &Desktop{goos: runtime.GOOS, run: startDetached, logger: logger}
}

// OpenURL implements repositories.Launcher
func (d *Desktop) OpenURL(ctx context.Context, url string) error {
	name, args := d.openCommand(url)
	d.logger.Info("Opening URL", zap.String("url", url), zap.String("command", name))
	if err := d.run(context.WithoutCancel(ctx), name, args...); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// OpenApp implements repositories.Launcher
func (d *Desktop) OpenApp(ctx context.Context, app string) error {
	target := app
	if perOS, ok := apps[app]; ok {
		if exe, ok := perOS[d.goos]; ok {
			target = exe
		}
	}

	var name string
	var args []string
	switch d.goos {
	case "darwin":
		name, args = "open", []string{"-a", target}
	case "windows":
		name, args = "cmd", []string{"/c", "start", "", target}
	default:
		name = target
	}

	d.logger.Info("Starting application", zap.String("app", app), zap.String("command", name))
	if err := d.run(context.WithoutCancel(ctx), name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", app, err)
	}
	return nil
}

func (d *Desktop) openCommand(url string) (string, []string) {
	switch d.goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
