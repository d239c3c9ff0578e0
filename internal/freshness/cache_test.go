package freshness

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func setModTime(t *testing.T, path string, mt time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}
}

func TestCheckEmptyPath(t *testing.T) {
	cache := New()
	if _, err := cache.Check(""); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("Check(\"\") error = %v, want ErrEmptyPath", err)
	}
}

func TestCheckMissingFile(t *testing.T) {
	cache := New()
	_, err := cache.Check(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Check on missing file error = %v, want ErrNotFound", err)
	}
	if cache.Len() != 0 {
		t.Errorf("missing file created a cache entry")
	}
}

func TestFirstObservationThenIdempotent(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "img.png")
	cache := New()

	first, err := cache.Check(path)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !first.Updated {
		t.Errorf("first observation of an existing file must report updated")
	}

	// No intervening change: repeated checks settle on updated=false with a
	// stable timestamp
	for i := 0; i < 2; i++ {
		res, err := cache.Check(path)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if res.Updated {
			t.Errorf("check %d reported updated for an unmodified file", i+2)
		}
		if !res.ModTime.Equal(first.ModTime) {
			t.Errorf("check %d mtime = %v, want %v", i+2, res.ModTime, first.ModTime)
		}
	}
}

func TestNewerModTimeAdvancesCache(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "img.png")
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	setModTime(t, path, base)

	cache := New()
	if _, err := cache.Check(path); err != nil {
		t.Fatalf("baseline check failed: %v", err)
	}

	newer := base.Add(10 * time.Second)
	setModTime(t, path, newer)

	res, err := cache.Check(path)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.Updated {
		t.Errorf("strictly newer mtime must report updated")
	}
	if !res.ModTime.Equal(newer) {
		t.Errorf("mtime = %v, want %v", res.ModTime, newer)
	}
}

func TestOlderModTimeNeverRegressesCache(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "img.png")
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	setModTime(t, path, base)

	cache := New()
	if _, err := cache.Check(path); err != nil {
		t.Fatalf("baseline check failed: %v", err)
	}

	setModTime(t, path, base.Add(-time.Minute))

	res, err := cache.Check(path)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if res.Updated {
		t.Errorf("older mtime reported as update")
	}
	if !res.ModTime.Equal(base) {
		t.Errorf("cached mtime regressed: %v, want %v", res.ModTime, base)
	}
}

func TestNormalizationEquivalence(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "img.png")
	t.Chdir(dir)

	cache := New()
	if _, err := cache.Check("./img.png"); err != nil {
		t.Fatalf("relative check failed: %v", err)
	}

	abs := filepath.Join(dir, "img.png")
	res, err := cache.Check(abs)
	if err != nil {
		t.Fatalf("absolute check failed: %v", err)
	}
	if res.Updated {
		t.Errorf("absolute spelling treated as a distinct entry")
	}
	if cache.Len() != 1 {
		t.Errorf("cache has %d entries, want 1", cache.Len())
	}
}

func TestConcurrentCheckersNeverRegress(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "img.png")
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	setModTime(t, path, base)

	cache := New()
	if _, err := cache.Check(path); err != nil {
		t.Fatalf("baseline check failed: %v", err)
	}

	newer := base.Add(time.Minute)
	setModTime(t, path, newer)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := cache.Check(path)
			if err != nil {
				t.Errorf("concurrent check failed: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	updates := 0
	for _, res := range results {
		if res.Updated {
			updates++
		}
		if res.ModTime.Before(base) {
			t.Errorf("observed mtime %v before baseline %v", res.ModTime, base)
		}
	}
	if updates != 1 {
		t.Errorf("%d callers won the baseline update, want exactly 1", updates)
	}

	final, err := cache.Check(path)
	if err != nil {
		t.Fatalf("final check failed: %v", err)
	}
	if final.Updated || !final.ModTime.Equal(newer) {
		t.Errorf("final state = %+v, want settled on %v", final, newer)
	}
}
