package editor_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelpipe/internal/config"
	"reelpipe/internal/editor"
	"reelpipe/internal/logging"
	"reelpipe/internal/media/ffprobe"
	"reelpipe/internal/services"
	"reelpipe/internal/testsupport"
)

type fakeFFmpeg struct {
	calls  [][]string
	failAt int
}

// run writes the output file (last argument) unless this call should fail.
func (f *fakeFFmpeg) run(_ context.Context, _ string, args ...string) error {
	f.calls = append(f.calls, args)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return errors.New("exit status 1")
	}
	return os.WriteFile(args[len(args)-1], []byte("edited-"+args[1]), 0o644)
}

func prober(duration float64) editor.Prober {
	return func(_ context.Context, path string) (ffprobe.Probe, error) {
		if strings.HasSuffix(path, "complement.mp4") {
			return ffprobe.Probe{Duration: 5, Width: 640, Height: 360}, nil
		}
		return ffprobe.Probe{Duration: duration, Width: 1920, Height: 1080}, nil
	}
}

func newEditor(t *testing.T, ff *fakeFFmpeg, duration float64) (*editor.Editor, string, []byte, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithComplementClip())
	video := filepath.Join(cfg.Paths.UploadableDir, "Trailer Oficial.mp4")
	original := []byte("original video bytes")
	if err := os.WriteFile(video, original, 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	ed := editor.New(cfg, logging.NewNop(), editor.WithCommandRunner(ff.run), editor.WithProber(prober(duration)))
	return ed, video, original, cfg
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "temp_") {
			t.Fatalf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestEditReplacesOriginal(t *testing.T) {
	ff := &fakeFFmpeg{}
	ed, video, _, _ := newEditor(t, ff, 100)

	result, err := ed.Edit(context.Background(), video)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if result.CutAt != 88 {
		t.Fatalf("expected cut at 88s, got %v", result.CutAt)
	}
	if len(ff.calls) != 3 {
		t.Fatalf("expected 3 ffmpeg invocations, got %d", len(ff.calls))
	}

	cut := strings.Join(ff.calls[0], " ")
	for _, want := range []string{"-t 88.000", "-c:v libx264", "-c:a aac", "-preset fast", "-crf 23", "-r 30", "-ar 48000", "-ac 2"} {
		if !strings.Contains(cut, want) {
			t.Fatalf("cut command missing %q: %s", want, cut)
		}
	}
	if !strings.Contains(strings.Join(ff.calls[1], " "), "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080") {
		t.Fatalf("complement not scaled to source resolution: %v", ff.calls[1])
	}
	if !strings.Contains(strings.Join(ff.calls[2], " "), "concat=n=2:v=1:a=1") {
		t.Fatalf("unexpected concat command: %v", ff.calls[2])
	}

	data, err := os.ReadFile(video)
	if err != nil {
		t.Fatalf("read edited video: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("edited-")) {
		t.Fatalf("expected original to be replaced, got %q", data)
	}
	assertNoTempFiles(t, filepath.Dir(video))
}

func TestEditFailureKeepsOriginalByteIdentical(t *testing.T) {
	for _, step := range []int{1, 2, 3} {
		ff := &fakeFFmpeg{failAt: step}
		ed, video, original, _ := newEditor(t, ff, 100)

		_, err := ed.Edit(context.Background(), video)
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("step %d: expected external tool error, got %v", step, err)
		}
		data, readErr := os.ReadFile(video)
		if readErr != nil {
			t.Fatalf("step %d: original missing: %v", step, readErr)
		}
		if !bytes.Equal(data, original) {
			t.Fatalf("step %d: original modified: %q", step, data)
		}
		assertNoTempFiles(t, filepath.Dir(video))
	}
}

func TestEditRejectsShortVideo(t *testing.T) {
	ff := &fakeFFmpeg{}
	ed, video, original, _ := newEditor(t, ff, 12)

	_, err := ed.Edit(context.Background(), video)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ff.calls) != 0 {
		t.Fatalf("expected no ffmpeg calls, got %d", len(ff.calls))
	}
	data, _ := os.ReadFile(video)
	if !bytes.Equal(data, original) {
		t.Fatal("original modified")
	}
}

func TestEditRequiresComplementClip(t *testing.T) {
	ff := &fakeFFmpeg{}
	ed, video, _, cfg := newEditor(t, ff, 100)
	if err := os.Remove(cfg.Paths.ComplementClip); err != nil {
		t.Fatalf("remove complement: %v", err)
	}
	if _, err := ed.Edit(context.Background(), video); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(ff.calls) != 0 {
		t.Fatalf("expected no ffmpeg calls, got %d", len(ff.calls))
	}
}
