package cookiestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/entrhq/kagisearch/pkg/engine"
)

func TestNewFileStore(t *testing.T) {
	t.Run("creates store with custom path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.json")

		store, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		if store.Path() != path {
			t.Errorf("Expected path %s, got %s", path, store.Path())
		}
		if store.Exists() {
			t.Error("New store should not have a file yet")
		}
	})

	t.Run("creates store with default path when empty", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		store, err := NewFileStore("")
		if err != nil {
			t.Fatalf("NewFileStore with empty path failed: %v", err)
		}

		expected := filepath.Join(home, ".kagisearch", "cookies.json")
		if store.Path() != expected {
			t.Errorf("Expected default path %s, got %s", expected, store.Path())
		}
	})
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	want := []engine.Cookie{
		{
			Name:     "kagi_session",
			Value:    "abc123",
			Domain:   "kagi.com",
			Path:     "/",
			Expires:  -1,
			HTTPOnly: true,
			Secure:   true,
			SameSite: engine.SameSiteLax,
		},
		{Name: "theme", Value: "dark", Domain: "kagi.com", Path: "/", Expires: 1893456000},
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Exists() {
		t.Fatal("Expected cookie file to exist after Save")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected permissions 0600, got %o", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be removed after Save")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d cookies, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cookie %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFileStore_SaveEmpty(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "cookies.json"))

	if err := store.Save(nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("Expected empty JSON array, got %q", data)
	}

	cookies, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cookies) != 0 {
		t.Errorf("Expected no cookies, got %d", len(cookies))
	}
}

func TestFileStore_Load(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		store, _ := NewFileStore(filepath.Join(t.TempDir(), "cookies.json"))

		_, err := store.Load()
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
		store, _ := NewFileStore(path)

		if _, err := store.Load(); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("file written by another tool", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.json")
		content := `[{"name":"kagi_session","value":"v","domain":".kagi.com","path":"/","expires":-1,"httpOnly":true,"secure":true,"sameSite":"None"}]`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
		store, _ := NewFileStore(path)

		cookies, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(cookies) != 1 || cookies[0].SameSite != engine.SameSiteNone || !cookies[0].HTTPOnly {
			t.Errorf("Unexpected cookies: %+v", cookies)
		}
	})
}
