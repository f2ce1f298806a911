package editor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/media/ffprobe"
	"reelpipe/internal/services"
)

// Params is the fixed encoding parameter set applied to every ffmpeg step.
type Params struct {
	VideoCodec      string
	AudioCodec      string
	Preset          string
	CRF             int
	FrameRate       int
	AudioSampleRate int
	AudioChannels   int
}

// ParamsFromConfig copies the encoding settings out of the edit section.
func ParamsFromConfig(cfg config.Edit) Params {
	return Params{
		VideoCodec:      cfg.VideoCodec,
		AudioCodec:      cfg.AudioCodec,
		Preset:          cfg.Preset,
		CRF:             cfg.CRF,
		FrameRate:       cfg.FrameRate,
		AudioSampleRate: cfg.AudioSampleRate,
		AudioChannels:   cfg.AudioChannels,
	}
}

func (p Params) args() []string {
	return []string{
		"-c:v", p.VideoCodec,
		"-c:a", p.AudioCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-r", strconv.Itoa(p.FrameRate),
		"-ar", strconv.Itoa(p.AudioSampleRate),
		"-ac", strconv.Itoa(p.AudioChannels),
	}
}

// CommandRunner executes an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Prober reports the duration and resolution of a video file.
type Prober func(ctx context.Context, path string) (ffprobe.Probe, error)

// Result describes a completed edit.
type Result struct {
	Path         string
	Duration     float64
	CutAt        float64
	Width        int
	Height       int
	OriginalSize int64
	EditedSize   int64
}

// Editor trims the tail of a video, appends the complement clip scaled to
// the video's resolution, and replaces the original file in place.
type Editor struct {
	ffmpeg      string
	complement  string
	trimSeconds float64
	params      Params
	run         CommandRunner
	probe       Prober
	pid         int
	logger      *slog.Logger
}

// Option customizes an Editor.
type Option func(*Editor)

// WithCommandRunner allows injecting a custom command runner for tests.
func WithCommandRunner(r CommandRunner) Option {
	return func(e *Editor) {
		if r != nil {
			e.run = r
		}
	}
}

// WithProber overrides the ffprobe-backed prober.
func WithProber(p Prober) Option {
	return func(e *Editor) {
		if p != nil {
			e.probe = p
		}
	}
}

// New constructs an editor from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Editor {
	ffprobeBinary := cfg.FFprobeBinary()
	e := &Editor{
		ffmpeg:      cfg.FFmpegBinary(),
		complement:  cfg.Paths.ComplementClip,
		trimSeconds: float64(cfg.Edit.TrimSeconds),
		params:      ParamsFromConfig(cfg.Edit),
		run:         defaultCommandRunner,
		probe: func(ctx context.Context, path string) (ffprobe.Probe, error) {
			return ffprobe.ProbeVideo(ctx, ffprobeBinary, path)
		},
		pid:    os.Getpid(),
		logger: logging.NewComponentLogger(logger, "editor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Edit rewrites videoPath in place. On any failure the original file is left
// untouched and every temporary file is removed.
func (e *Editor) Edit(ctx context.Context, videoPath string) (Result, error) {
	if e == nil {
		return Result{}, fmt.Errorf("editor not initialized")
	}
	original, err := os.Stat(videoPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "edit", "stat video", videoPath, err)
	}
	if _, err := os.Stat(e.complement); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "edit", "stat complement", e.complement, err)
	}

	source, err := e.probe(ctx, videoPath)
	if err != nil {
		return Result{}, fmt.Errorf("probe video: %w", err)
	}
	cutAt := source.Duration - e.trimSeconds
	if cutAt <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, "edit", "cut",
			fmt.Sprintf("video is %.2fs, too short to trim %.0fs", source.Duration, e.trimSeconds), nil)
	}
	if _, err := e.probe(ctx, e.complement); err != nil {
		return Result{}, fmt.Errorf("probe complement: %w", err)
	}

	dir := filepath.Dir(videoPath)
	name := filepath.Base(videoPath)
	tempCut := filepath.Join(dir, fmt.Sprintf("temp_cut_%d_%s", e.pid, name))
	tempComplement := filepath.Join(dir, fmt.Sprintf("temp_complement_%d.mp4", e.pid))
	tempEdited := filepath.Join(dir, fmt.Sprintf("temp_edited_%d_%s", e.pid, name))
	defer func() {
		_ = os.Remove(tempCut)
		_ = os.Remove(tempComplement)
	}()

	e.logger.Info("editing video",
		logging.String(logging.FieldEventType, "edit_start"),
		logging.String("video_path", videoPath),
		logging.Float64("duration_seconds", source.Duration),
		logging.Float64("cut_seconds", cutAt),
		logging.String("resolution", fmt.Sprintf("%dx%d", source.Width, source.Height)),
	)

	steps := []struct {
		name string
		args []string
	}{
		{"cut", e.cutArgs(videoPath, cutAt, tempCut)},
		{"complement", e.complementArgs(source.Width, source.Height, tempComplement)},
		{"concat", e.concatArgs(tempCut, tempComplement, tempEdited)},
	}
	for _, step := range steps {
		if err := e.run(ctx, e.ffmpeg, step.args...); err != nil {
			_ = os.Remove(tempEdited)
			return Result{}, services.Wrap(services.ErrExternalTool, "edit", step.name, "ffmpeg failed", err)
		}
	}

	edited, err := os.Stat(tempEdited)
	if err != nil || edited.Size() == 0 {
		_ = os.Remove(tempEdited)
		return Result{}, services.Wrap(services.ErrExternalTool, "edit", "concat", "ffmpeg produced no output", err)
	}
	if err := os.Rename(tempEdited, videoPath); err != nil {
		_ = os.Remove(tempEdited)
		return Result{}, fmt.Errorf("replace original video: %w", err)
	}

	e.logger.Info("video edited",
		logging.String(logging.FieldEventType, "edit_complete"),
		logging.String("video_path", videoPath),
		logging.Int64("original_bytes", original.Size()),
		logging.Int64("edited_bytes", edited.Size()),
	)
	return Result{
		Path:         videoPath,
		Duration:     source.Duration,
		CutAt:        cutAt,
		Width:        source.Width,
		Height:       source.Height,
		OriginalSize: original.Size(),
		EditedSize:   edited.Size(),
	}, nil
}

func (e *Editor) cutArgs(input string, cutAt float64, output string) []string {
	args := []string{"-i", input, "-t", strconv.FormatFloat(cutAt, 'f', 3, 64)}
	args = append(args, e.params.args()...)
	return append(args, "-y", output)
}

func (e *Editor) complementArgs(width, height int, output string) []string {
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black", width, height, width, height)
	args := []string{"-i", e.complement, "-vf", filter}
	args = append(args, e.params.args()...)
	return append(args, "-y", output)
}

func (e *Editor) concatArgs(cut, complement, output string) []string {
	args := []string{
		"-i", cut,
		"-i", complement,
		"-filter_complex", "[0:v][0:a][1:v][1:a]concat=n=2:v=1:a=1[outv][outa]",
		"-map", "[outv]",
		"-map", "[outa]",
	}
	args = append(args, e.params.args()...)
	return append(args, "-y", output)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, lastLines(string(output), 5))
	}
	return nil
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
