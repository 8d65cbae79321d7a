package runcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SgtSeamonkey/fbauto123/internal/catalog"
	"github.com/SgtSeamonkey/fbauto123/internal/listing"
	"github.com/SgtSeamonkey/fbauto123/internal/organizer"
)

func archivedImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("image bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOrganizeAndListCreatesItemFolders(t *testing.T) {
	archive := t.TempDir()
	output := t.TempDir()

	org, err := organizer.New(output)
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.Load(filepath.Join(output, "item_catalog.json"), 0.80)

	analyses := []*listing.Analysis{
		{
			ItemName: "Blue Mug", ItemKey: "blue_mug",
			Description: "a blue ceramic mug", Price: 9, Condition: "Good", Category: "Home & Kitchen",
			ImageName: "1.jpg", ImagePath: archivedImage(t, archive, "1.jpg"),
		},
		{
			ItemName: "Blue Mug", ItemKey: "blue_mug",
			Description: "blue mug, side view", Price: 11, Condition: "Good", Category: "Home & Kitchen",
			ImageName: "2.jpg", ImagePath: archivedImage(t, archive, "2.jpg"),
		},
		{
			ItemName: "Desk Lamp", ItemKey: "desk_lamp",
			Description: "adjustable lamp", Price: 25, Condition: "Like New", Category: "Home & Kitchen",
			ImageName: "3.jpg", ImagePath: archivedImage(t, archive, "3.jpg"),
		},
	}

	summaries := organizeAndList(org, cat, analyses, "2025-06-01")

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if cat.Len() != 2 {
		t.Errorf("catalog has %d entries, want 2", cat.Len())
	}

	mugFolder := filepath.Join(output, "blue_mug")
	for _, name := range []string{"listing.txt", "1.jpg", "2.jpg"} {
		if _, err := os.Stat(filepath.Join(mugFolder, name)); err != nil {
			t.Errorf("expected %s in item folder: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(output, "desk_lamp", "listing.txt")); err != nil {
		t.Errorf("expected desk_lamp listing: %v", err)
	}
}

func TestOrganizeAndListMergesCrossRunDuplicates(t *testing.T) {
	archive := t.TempDir()
	output := t.TempDir()

	org, err := organizer.New(output)
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.Load(filepath.Join(output, "item_catalog.json"), 0.80)

	desc := "a handmade blue ceramic coffee mug with a glossy glaze, comfortable curved handle, and no visible chips or cracks"
	first := []*listing.Analysis{{
		ItemName: "Blue Ceramic Mug", ItemKey: "blue_ceramic_mug",
		Description: desc, Price: 9, Condition: "Good", Category: "Home & Kitchen",
		ImageName: "1.jpg", ImagePath: archivedImage(t, archive, "1.jpg"),
	}}
	organizeAndList(org, cat, first, "2025-06-01")

	// A later run sees the same item again under a reordered key.
	second := []*listing.Analysis{{
		ItemName: "Blue Ceramic Mug", ItemKey: "ceramic_blue_mug",
		Description: desc, Price: 10, Condition: "Good", Category: "Home & Kitchen",
		ImageName: "4.jpg", ImagePath: archivedImage(t, archive, "4.jpg"),
	}}
	summaries := organizeAndList(org, cat, second, "2025-06-02")

	if cat.Len() != 1 {
		t.Fatalf("catalog has %d entries, want 1 (merged)", cat.Len())
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}

	mugFolder := filepath.Join(output, "blue_ceramic_mug")
	if summaries[0].FolderPath != mugFolder {
		t.Errorf("summary folder = %s, want %s", summaries[0].FolderPath, mugFolder)
	}
	// No second folder was created; the new photo and a dated update landed
	// in the original one.
	if _, err := os.Stat(filepath.Join(output, "ceramic_blue_mug")); !os.IsNotExist(err) {
		t.Error("duplicate item folder was created")
	}
	for _, name := range []string{"4.jpg", "listing_update_2025-06-02.txt"} {
		if _, err := os.Stat(filepath.Join(mugFolder, name)); err != nil {
			t.Errorf("expected %s in merged folder: %v", name, err)
		}
	}
}

func TestOrganizeAndListSkipsFolderWithExistingListing(t *testing.T) {
	archive := t.TempDir()
	output := t.TempDir()

	org, err := organizer.New(output)
	if err != nil {
		t.Fatal(err)
	}
	// High threshold so the catalog never matches and the folder check runs.
	cat := catalog.Load(filepath.Join(output, "item_catalog.json"), 1.01)

	folder := filepath.Join(output, "blue_mug")
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "listing.txt"), []byte("TITLE: x"), 0644); err != nil {
		t.Fatal(err)
	}

	analyses := []*listing.Analysis{{
		ItemName: "Blue Mug", ItemKey: "blue_mug",
		ImageName: "1.jpg", ImagePath: archivedImage(t, archive, "1.jpg"),
	}}
	summaries := organizeAndList(org, cat, analyses, "2025-06-01")

	if len(summaries) != 0 {
		t.Errorf("got %d summaries, want 0 (skipped)", len(summaries))
	}
}
