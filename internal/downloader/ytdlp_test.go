package downloader

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocateResult(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "job1.mp4"))
	touch(t, filepath.Join(dir, "job2.webm"))

	got, err := locateResult(dir, "job1")
	if err != nil {
		t.Fatalf("locateResult failed: %v", err)
	}
	if got != "job1.mp4" {
		t.Errorf("expected job1.mp4, got %s", got)
	}
}

func TestLocateResultIgnoresPartials(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "job1.mp4.part"))
	touch(t, filepath.Join(dir, "job1.mp4.ytdl"))

	if _, err := locateResult(dir, "job1"); err == nil {
		t.Error("expected error when only partial artifacts exist")
	}
}

func TestLocateResultMissing(t *testing.T) {
	if _, err := locateResult(t.TempDir(), "absent"); err == nil {
		t.Error("expected error for missing result")
	}
}

func TestLastLine(t *testing.T) {
	cases := map[string]string{
		"":                          "no output",
		"one\ntwo\nthree\n":         "three",
		"one\n\n   \n":              "one",
		"ERROR: unsupported URL\n":  "ERROR: unsupported URL",
	}
	for in, want := range cases {
		if got := lastLine([]byte(in)); got != want {
			t.Errorf("lastLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRequiresBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	if _, err := New(t.TempDir(), ""); err == nil {
		t.Skip("yt-dlp found next to the test binary")
	}
}

func TestNewWithExplicitPath(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	touch(t, bin)

	y, err := New(t.TempDir(), bin)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if y.binPath != bin {
		t.Errorf("expected explicit binary path to win, got %s", y.binPath)
	}
}
