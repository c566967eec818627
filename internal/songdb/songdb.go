// Package songdb holds the Pink Floyd song catalog: immutable reference data
// seeded once and queried read-only by the database tool and the REST layer.
package songdb

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Song is one catalog row.
type Song struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Album           string `json:"album"`
	Year            int    `json:"year"`
	Lyrics          string `json:"lyrics,omitempty"`
	Mood            string `json:"mood"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	TrackNumber     int    `json:"track_number,omitempty"`
}

type DB struct {
	*sql.DB
}

// Open opens the catalog at path, creating the schema and seeding the
// reference set when the table is empty.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open songs db: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS songs(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		album TEXT NOT NULL,
		year INTEGER NOT NULL,
		lyrics TEXT,
		mood TEXT NOT NULL,
		duration_seconds INTEGER,
		track_number INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_songs_mood ON songs(mood);
	CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album);
	CREATE INDEX IF NOT EXISTS idx_songs_year ON songs(year)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create songs schema: %w", err)
	}

	d := &DB{db}
	if err := d.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (db *DB) seed() error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM songs`).Scan(&count); err != nil {
		return fmt.Errorf("count songs: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	for _, s := range catalog {
		if _, err := tx.Exec(`INSERT INTO songs(title, album, year, lyrics, mood, duration_seconds, track_number)
			VALUES(?,?,?,?,?,?,?)`,
			s.Title, s.Album, s.Year, s.Lyrics, s.Mood, s.DurationSeconds, s.TrackNumber); err != nil {
			tx.Rollback()
			return fmt.Errorf("seed song %q: %w", s.Title, err)
		}
	}
	return tx.Commit()
}

const songColumns = `id, title, album, year, COALESCE(lyrics, ''), mood,
	COALESCE(duration_seconds, 0), COALESCE(track_number, 0)`

func (db *DB) query(q string, args ...interface{}) ([]Song, error) {
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var s Song
		if err := rows.Scan(&s.ID, &s.Title, &s.Album, &s.Year, &s.Lyrics,
			&s.Mood, &s.DurationSeconds, &s.TrackNumber); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// All returns every song, optionally limited. limit <= 0 means no limit.
func (db *DB) All(limit int) ([]Song, error) {
	if limit > 0 {
		return db.query(`SELECT `+songColumns+` FROM songs ORDER BY id LIMIT ?`, limit)
	}
	return db.query(`SELECT ` + songColumns + ` FROM songs ORDER BY id`)
}

// ByMood matches the mood label as a case-insensitive substring.
func (db *DB) ByMood(mood string) ([]Song, error) {
	return db.query(`SELECT `+songColumns+` FROM songs WHERE mood LIKE ?`, like(mood))
}

// ByAlbum matches the album name as a case-insensitive substring.
func (db *DB) ByAlbum(album string) ([]Song, error) {
	return db.query(`SELECT `+songColumns+` FROM songs WHERE album LIKE ?`, like(album))
}

// ByYear returns songs released in the given year.
func (db *DB) ByYear(year int) ([]Song, error) {
	return db.query(`SELECT `+songColumns+` FROM songs WHERE year = ?`, year)
}

// ByDecade returns songs in [decade, decade+9], e.g. 1970 for the 1970s.
func (db *DB) ByDecade(decade int) ([]Song, error) {
	return db.query(`SELECT `+songColumns+` FROM songs WHERE year >= ? AND year <= ?`,
		decade, decade+9)
}

// ByTitle returns the first song whose title contains the given text.
func (db *DB) ByTitle(title string) (*Song, error) {
	songs, err := db.query(`SELECT `+songColumns+` FROM songs WHERE title LIKE ? LIMIT 1`, like(title))
	if err != nil || len(songs) == 0 {
		return nil, err
	}
	return &songs[0], nil
}

// SearchLyrics matches songs whose lyrics contain any of the given
// whitespace-separated keywords.
func (db *DB) SearchLyrics(keywords string) ([]Song, error) {
	words := strings.Fields(strings.ToLower(keywords))
	if len(words) == 0 {
		return nil, nil
	}
	conds := make([]string, len(words))
	args := make([]interface{}, len(words))
	for i, w := range words {
		conds[i] = "lyrics LIKE ?"
		args[i] = like(w)
	}
	return db.query(`SELECT `+songColumns+` FROM songs WHERE `+strings.Join(conds, " OR "), args...)
}

// Search matches the query against title, album and lyrics, with optional
// mood and album filters.
func (db *DB) Search(query, mood, album string) ([]Song, error) {
	q := `SELECT ` + songColumns + ` FROM songs WHERE (title LIKE ? OR album LIKE ? OR lyrics LIKE ?)`
	args := []interface{}{like(query), like(query), like(query)}
	if mood != "" {
		q += ` AND mood LIKE ?`
		args = append(args, like(mood))
	}
	if album != "" {
		q += ` AND album LIKE ?`
		args = append(args, like(album))
	}
	return db.query(q, args...)
}

// MoodCounts returns the number of songs per mood label.
func (db *DB) MoodCounts() (map[string]int, error) {
	rows, err := db.Query(`SELECT mood, COUNT(*) FROM songs GROUP BY mood`)
	if err != nil {
		return nil, fmt.Errorf("mood counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mood string
		var n int
		if err := rows.Scan(&mood, &n); err != nil {
			return nil, fmt.Errorf("scan mood count: %w", err)
		}
		counts[mood] = n
	}
	return counts, rows.Err()
}

// Count returns the total number of songs.
func (db *DB) Count() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM songs`).Scan(&n)
	return n, err
}

func like(s string) string {
	return "%" + s + "%"
}
