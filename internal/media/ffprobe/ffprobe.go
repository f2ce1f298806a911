package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"reelpipe/internal/services"
)

// Probe is what the editor needs to know about a clip.
type Probe struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
}

// probeOutput mirrors the subset of `ffprobe -of json` requested below.
type probeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeVideo runs binary (ffprobe when empty) against path and reports the
// container duration and the first video stream. Both must be present.
func ProbeVideo(ctx context.Context, binary, path string) (Probe, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Probe{}, services.Wrap(services.ErrValidation, "ffprobe", "probe", "empty path", nil)
	}
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=codec_name,width,height",
		"-of", "json",
		"--", path,
	)
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Probe{}, services.Wrap(services.ErrExternalTool, "ffprobe", "probe", stderr, err)
	}
	return parseProbe(path, out)
}

func parseProbe(path string, data []byte) (Probe, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return Probe{}, services.Wrap(services.ErrValidation, "ffprobe", "decode", path, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(raw.Format.Duration), 64)
	if err != nil || math.IsNaN(duration) || duration <= 0 {
		return Probe{}, services.Wrap(services.ErrValidation, "ffprobe", "duration",
			fmt.Sprintf("%s: unknown duration %q", path, raw.Format.Duration), nil)
	}
	for _, s := range raw.Streams {
		if s.Width > 0 && s.Height > 0 {
			return Probe{Duration: duration, Width: s.Width, Height: s.Height, Codec: s.CodecName}, nil
		}
	}
	return Probe{}, services.Wrap(services.ErrValidation, "ffprobe", "resolution",
		fmt.Sprintf("%s: no video stream", path), nil)
}
