package songdb

import (
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "songs.db"))
	if err != nil {
		t.Fatalf("open songs db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSeedsCatalog(t *testing.T) {
	db := openTestDB(t)

	n, err := db.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(catalog) {
		t.Errorf("seeded %d songs, want %d", n, len(catalog))
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "songs.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()

	n, _ := db.Count()
	if n != len(catalog) {
		t.Errorf("after reopen got %d songs, want %d", n, len(catalog))
	}
}

func TestByMood(t *testing.T) {
	db := openTestDB(t)

	songs, err := db.ByMood("melancholic")
	if err != nil {
		t.Fatalf("by mood: %v", err)
	}
	if len(songs) == 0 {
		t.Fatal("expected melancholic songs")
	}
	found := false
	for _, s := range songs {
		if s.Mood != "melancholic" {
			t.Errorf("song %q has mood %q", s.Title, s.Mood)
		}
		if s.Title == "Time" {
			found = true
		}
	}
	if !found {
		t.Error("expected Time among melancholic songs")
	}
}

func TestByAlbumPartialMatch(t *testing.T) {
	db := openTestDB(t)

	songs, err := db.ByAlbum("dark side")
	if err != nil {
		t.Fatalf("by album: %v", err)
	}
	if len(songs) == 0 {
		t.Fatal("expected songs on The Dark Side of the Moon")
	}
	for _, s := range songs {
		if s.Album != "The Dark Side of the Moon" {
			t.Errorf("unexpected album %q", s.Album)
		}
	}
}

func TestByDecade(t *testing.T) {
	db := openTestDB(t)

	songs, err := db.ByDecade(1970)
	if err != nil {
		t.Fatalf("by decade: %v", err)
	}
	for _, s := range songs {
		if s.Year < 1970 || s.Year > 1979 {
			t.Errorf("song %q year %d outside the 1970s", s.Title, s.Year)
		}
	}
	sixties, err := db.ByDecade(1960)
	if err != nil {
		t.Fatalf("by decade: %v", err)
	}
	if len(songs)+len(sixties) != len(catalog) {
		t.Errorf("decades cover %d songs, want %d", len(songs)+len(sixties), len(catalog))
	}
}

func TestSearchLyrics(t *testing.T) {
	db := openTestDB(t)

	songs, err := db.SearchLyrics("education")
	if err != nil {
		t.Fatalf("search lyrics: %v", err)
	}
	if len(songs) != 1 || songs[0].Title != "Another Brick in the Wall (Part 2)" {
		t.Errorf("lyrics search for education returned %+v", titles(songs))
	}
}

func TestSearchAcrossFields(t *testing.T) {
	db := openTestDB(t)

	songs, err := db.Search("machine", "", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(songs) == 0 {
		t.Fatal("expected matches for machine")
	}

	filtered, err := db.Search("the", "dark", "")
	if err != nil {
		t.Fatalf("filtered search: %v", err)
	}
	for _, s := range filtered {
		if !strings.Contains(s.Mood, "dark") {
			t.Errorf("mood filter leaked song %q with mood %q", s.Title, s.Mood)
		}
	}
}

func TestMoodCounts(t *testing.T) {
	db := openTestDB(t)

	counts, err := db.MoodCounts()
	if err != nil {
		t.Fatalf("mood counts: %v", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != len(catalog) {
		t.Errorf("mood counts sum to %d, want %d", total, len(catalog))
	}
	if counts["melancholic"] == 0 {
		t.Error("expected a melancholic bucket")
	}
}

func titles(songs []Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title
	}
	return out
}
