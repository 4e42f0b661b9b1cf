package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/ablomer/steam-clip-bot/internal/storage"
)

func newTestApp(t *testing.T) (*fiber.App, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(store, nil), store
}

func TestIndexRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected index payload: %v", body)
	}
}

func TestHealthRoute(t *testing.T) {
	app, store := newTestApp(t)
	if err := os.WriteFile(store.Path("a.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected health status: %v", body["status"])
	}
	if body["downloads_dir_exists"] != true {
		t.Error("expected downloads_dir_exists to be true")
	}
	if body["file_count"] != float64(1) {
		t.Errorf("expected file_count 1, got %v", body["file_count"])
	}
}

func TestHealthRouteWithFailingIndex(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	clips, err := storage.NewClipIndex(filepath.Join(t.TempDir(), "clips.db"))
	if err != nil {
		t.Fatal(err)
	}
	clips.Close() // every Count from here on errors

	app := New(store, clips)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 despite index failure, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["clips_indexed"]; ok {
		t.Error("clips_indexed should be omitted when the index cannot be read")
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected health status: %v", body["status"])
	}
}

func TestServeStoredClip(t *testing.T) {
	app, store := newTestApp(t)
	content := []byte("fake mp4 bytes")
	if err := os.WriteFile(store.Path("abc.mp4"), content, 0644); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/abc.mp4", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("expected video/mp4, got %s", ct)
	}

	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Error("served bytes differ from stored bytes")
	}
}

func TestServeRangeRequest(t *testing.T) {
	app, store := newTestApp(t)
	if err := os.WriteFile(store.Path("abc.mp4"), []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/abc.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "2345" {
		t.Errorf("expected bytes 2345, got %q", got)
	}
}

func TestServeMissingClip(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/missing.mp4", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUnknownRoutesReturnNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{"/a/b", "/a/b/c.mp4"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", target, resp.StatusCode)
		}
	}
}

func TestServeRejectsHiddenFiles(t *testing.T) {
	app, store := newTestApp(t)
	if err := os.WriteFile(store.Path(".secret"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/.secret", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}
