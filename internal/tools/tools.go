package tools

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExecCollect runs name in dir and returns its stdout. Stderr is included in
// the returned error when the command fails.
func ExecCollect(dir, name string, args ...string) ([]byte, error) {
	var o, e bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	cmd.Dir = dir
	cmd.Stdout = &o
	cmd.Stderr = &e
	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(e.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return o.Bytes(), nil
}

// WriteFile writes data to path, creating missing parent directories. The
// file is left untouched when its content is already data, so watchers do
// not see spurious events. It reports whether the file was written.
func WriteFile(path string, data []byte) (bool, error) {
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	slog.Debug("write", "path", path, "size", len(data))
	return true, nil
}
