package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	root := t.TempDir()
	r := &Resolver{
		InputDir:      filepath.Join(root, "input"),
		ProcessedDir:  filepath.Join(root, "processed"),
		OutputDir:     filepath.Join(root, "output"),
		QuarantineDir: filepath.Join(root, "quarantine"),
	}
	if err := os.MkdirAll(r.InputDir, 0755); err != nil {
		t.Fatal(err)
	}
	return r
}

func itemNames(items []Item) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

func TestAllInputImagesFiltersAndSorts(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.InputDir, "b.jpg"))
	touch(t, filepath.Join(r.InputDir, "a.png"))
	touch(t, filepath.Join(r.InputDir, "notes.txt"))
	touch(t, filepath.Join(r.InputDir, "subdir", "c.jpg")) // directories are skipped

	items, err := r.AllInputImages()
	if err != nil {
		t.Fatalf("AllInputImages() error = %v", err)
	}
	got := itemNames(items)
	want := []string{"a.png", "b.jpg"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPendingItemsExcludesProcessedAndQuarantined(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.InputDir, "a.jpg"))
	touch(t, filepath.Join(r.InputDir, "b.jpg"))
	touch(t, filepath.Join(r.InputDir, "c.jpg"))
	touch(t, filepath.Join(r.ProcessedDir, "a.jpg"))
	touch(t, filepath.Join(r.QuarantineDir, "c.jpg"))

	pending, err := r.PendingItems()
	if err != nil {
		t.Fatalf("PendingItems() error = %v", err)
	}
	if got := itemNames(pending); len(got) != 1 || got[0] != "b.jpg" {
		t.Errorf("pending = %v, want [b.jpg]", got)
	}
}

func TestPendingItemsExcludesImagesInOutputFolders(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.InputDir, "a.jpg"))
	touch(t, filepath.Join(r.InputDir, "b.jpg"))
	// Older runs copied into output folders without archiving the source.
	touch(t, filepath.Join(r.OutputDir, "vintage_lamp", "a.jpg"))

	pending, err := r.PendingItems()
	if err != nil {
		t.Fatalf("PendingItems() error = %v", err)
	}
	if got := itemNames(pending); len(got) != 1 || got[0] != "b.jpg" {
		t.Errorf("pending = %v, want [b.jpg]", got)
	}
}

func TestPendingItemsToleratesMissingFolders(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.InputDir, "a.jpg"))

	// Processed, output, and quarantine folders do not exist yet.
	pending, err := r.PendingItems()
	if err != nil {
		t.Fatalf("PendingItems() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %v, want one item", itemNames(pending))
	}
}

func TestPendingItemsMatchingIsCaseSensitive(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.InputDir, "Photo.jpg"))
	touch(t, filepath.Join(r.ProcessedDir, "photo.jpg"))

	pending, err := r.PendingItems()
	if err != nil {
		t.Fatalf("PendingItems() error = %v", err)
	}
	if got := itemNames(pending); len(got) != 1 || got[0] != "Photo.jpg" {
		t.Errorf("pending = %v, want [Photo.jpg]", got)
	}
}
