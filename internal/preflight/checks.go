package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelpipe/internal/config"
	"reelpipe/internal/deps"
	"reelpipe/internal/services/llm"
)

const llmCheckTimeout = 30 * time.Second

// CheckLLM makes one health-check request without retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.ConfigFrom(cfg), llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(ctx); err != nil {
		return Result{Name: name, Detail: describeLLMFailure(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess passes when path is a directory the process can list
// and write into.
func CheckDirectoryAccess(name, path string) Result {
	if problem := inspect(path, true, unix.R_OK|unix.W_OK|unix.X_OK); problem != "" {
		return failed(name, path, problem)
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// EnsureDirectory creates path when missing, then checks access.
func EnsureDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return failed(name, path, "create: "+err.Error())
	}
	return CheckDirectoryAccess(name, path)
}

// CheckFile passes when path is a readable regular file.
func CheckFile(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	if problem := inspect(path, false, unix.R_OK); problem != "" {
		return failed(name, path, problem)
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// inspect returns "" when path exists with the expected kind and access mode,
// otherwise a short description of what is wrong.
func inspect(path string, wantDir bool, mode uint32) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "does not exist"
	case err != nil:
		return "stat: " + err.Error()
	case wantDir && !info.IsDir():
		return "is not a directory"
	case !wantDir && info.IsDir():
		return "is a directory"
	}
	if err := unix.Access(path, mode); err != nil {
		return "insufficient permissions: " + err.Error()
	}
	return ""
}

func failed(name, path, problem string) Result {
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, problem)}
}

// CheckSystemDeps looks up the external binaries needs asks for. The status
// command passes every need to list them all.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, needs Needs) []deps.Status {
	var binaries []deps.Binary
	if needs.Transcoder {
		binaries = append(binaries,
			deps.Binary{Name: "FFmpeg", Command: cfg.FFmpegBinary(), VersionFlag: "-version"},
			deps.Binary{Name: "FFprobe", Command: cfg.FFprobeBinary(), VersionFlag: "-version"},
		)
	}
	if needs.YTDLP {
		binaries = append(binaries, deps.Binary{Name: "yt-dlp", Command: cfg.YTDLPBinary(), VersionFlag: "--version"})
	}
	return deps.Check(ctx, binaries)
}

func describeLLMFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (LLM API unresponsive)"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "health check timed out (LLM API unreachable)"
	default:
		return err.Error()
	}
}
