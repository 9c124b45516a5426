package run

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/agentstation/epubalt/pkg/errors"
)

// opener returns the platform command that opens a file in its default viewer.
func opener(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open shows a file with the platform opener without waiting for the viewer.
func Open(ctx context.Context, path string) error {
	name, args := opener(runtime.GOOS, path)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return &errors.ProcessError{Operation: "open report", Command: name + " " + strings.Join(args, " "), Err: err}
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
