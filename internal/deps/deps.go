// Package deps locates the external programs the pipeline shells out to.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds each version probe.
const versionTimeout = 5 * time.Second

// Binary names an external program and how to ask it for its version.
type Binary struct {
	Name        string
	Command     string
	VersionFlag string
}

// Status is the lookup result for one Binary.
type Status struct {
	Binary
	Path    string
	Version string
	Err     error
}

// Found reports whether the binary resolved to an executable.
func (s Status) Found() bool { return s.Err == nil }

// Check resolves every binary and, when it has a VersionFlag, records the
// first line the program prints for it. A failing version probe does not make
// the binary unavailable.
func Check(ctx context.Context, binaries []Binary) []Status {
	out := make([]Status, len(binaries))
	for i, bin := range binaries {
		bin.Command = strings.TrimSpace(bin.Command)
		out[i] = Status{Binary: bin}
		if bin.Command == "" {
			out[i].Err = fmt.Errorf("%s: command not configured", bin.Name)
			continue
		}
		path, err := Resolve(bin.Command)
		if err != nil {
			out[i].Err = err
			continue
		}
		out[i].Path = path
		if bin.VersionFlag != "" {
			out[i].Version = version(ctx, path, bin.VersionFlag)
		}
	}
	return out
}

// Resolve returns the executable path for command. Commands with a path
// separator are checked in place; bare names go through PATH.
func Resolve(command string) (string, error) {
	if !strings.ContainsRune(command, os.PathSeparator) {
		path, err := exec.LookPath(command)
		if err != nil {
			return "", fmt.Errorf("binary %q not found in PATH", command)
		}
		return path, nil
	}
	info, err := os.Stat(command)
	switch {
	case err != nil:
		return "", fmt.Errorf("binary %q not found", command)
	case info.IsDir() || info.Mode().Perm()&0o111 == 0:
		return "", fmt.Errorf("binary %q is not executable", command)
	}
	return command, nil
}

func version(ctx context.Context, path, flag string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	raw, err := exec.CommandContext(ctx, path, flag).Output()
	if err != nil {
		return ""
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(raw)).ReadLine()
	return strings.TrimSpace(string(line))
}
