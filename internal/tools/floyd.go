package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nidhogg/echoes/internal/provider"
	"github.com/nidhogg/echoes/internal/songdb"
)

// FloydToolName is the registered name of the song database tool.
const FloydToolName = "pink_floyd_database"

const floydDescription = `A database of Pink Floyd songs. Use this tool to search for songs by:
- Mood (melancholic, energetic, psychedelic, progressive, dark)
- Album name (e.g., 'The Dark Side of the Moon', 'The Wall', 'Wish You Were Here')
- Lyrics keywords (e.g., 'time', 'wall', 'shine', 'crazy')
- Year or decade (e.g., 1973, 1970s)

Input should be a natural language query like:
- "Find melancholic songs"
- "Songs from The Wall album"
- "Songs with lyrics about time"
- "Psychedelic songs from the 1970s"

Output includes song title, album, year, lyrics snippet, and mood.`

// maxFloydResults caps how many songs one lookup renders.
const maxFloydResults = 10

var moodVocab = []string{"melancholic", "energetic", "psychedelic", "progressive", "dark"}

var albumVocab = []string{"dark side", "the wall", "wish you were here", "animals", "meddle", "piper"}

var lyricsStopWords = map[string]bool{
	"find": true, "search": true, "show": true, "get": true, "songs": true,
	"with": true, "lyrics": true, "about": true, "the": true, "a": true,
	"an": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true,
}

// Floyd answers free-text questions against the song catalog. Intent is
// classified against a small fixed vocabulary in priority order: mood, then
// album, then decade, then year, then lyrics keywords, then full-text
// search. First matching category wins.
type Floyd struct {
	db *songdb.DB
}

// NewFloyd creates the song database tool.
func NewFloyd(db *songdb.DB) *Floyd {
	return &Floyd{db: db}
}

// Definition returns the tool schema advertised to the model.
func (t *Floyd) Definition() provider.Tool {
	return provider.Tool{
		Type: "function",
		Function: provider.ToolFunction{
			Name:        FloydToolName,
			Description: floydDescription,
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Natural language query for the song database",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Invoke classifies the query and renders the matching songs.
func (t *Floyd) Invoke(ctx context.Context, args string) (string, error) {
	query := queryFromArgs(args)

	songs, err := t.lookup(strings.ToLower(query))
	if err != nil {
		return "", fmt.Errorf("query songs: %w", err)
	}
	if len(songs) == 0 {
		return noResults(query), nil
	}
	return formatSongs(songs), nil
}

func (t *Floyd) lookup(query string) ([]songdb.Song, error) {
	for _, mood := range moodVocab {
		if strings.Contains(query, mood) {
			return t.db.ByMood(mood)
		}
	}

	for _, album := range albumVocab {
		if strings.Contains(query, album) {
			return t.db.ByAlbum(album)
		}
	}

	if strings.Contains(query, "1970") || strings.Contains(query, "70s") || strings.Contains(query, "seventies") {
		return t.db.ByDecade(1970)
	}
	if strings.Contains(query, "1960") || strings.Contains(query, "60s") || strings.Contains(query, "sixties") {
		return t.db.ByDecade(1960)
	}

	for year := 1965; year < 1985; year++ {
		if strings.Contains(query, strconv.Itoa(year)) {
			return t.db.ByYear(year)
		}
	}

	if strings.Contains(query, "lyrics") || strings.Contains(query, "words") || strings.Contains(query, "about") {
		if keywords := stripStopWords(query); keywords != "" {
			return t.db.SearchLyrics(keywords)
		}
	}

	return t.db.Search(query, "", "")
}

func stripStopWords(query string) string {
	var keep []string
	for _, word := range strings.Fields(query) {
		if !lyricsStopWords[word] {
			keep = append(keep, word)
		}
	}
	return strings.Join(keep, " ")
}

func formatSongs(songs []songdb.Song) string {
	if len(songs) > maxFloydResults {
		songs = songs[:maxFloydResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d song(s):\n\n", len(songs))
	for i, song := range songs {
		fmt.Fprintf(&b, "%d. '%s' from %s (%d)\n", i+1, song.Title, song.Album, song.Year)
		fmt.Fprintf(&b, "   Mood: %s\n", song.Mood)
		if song.Lyrics != "" {
			snippet := song.Lyrics
			if len(snippet) > 120 {
				snippet = snippet[:120] + "..."
			}
			fmt.Fprintf(&b, "   Lyrics: \"%s\"\n", snippet)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func noResults(query string) string {
	return fmt.Sprintf("No Pink Floyd songs match your query: '%s'\n\n", query) +
		"Try searching by:\n" +
		"- Mood: melancholic, energetic, psychedelic, progressive, dark\n" +
		"- Album: The Dark Side of the Moon, The Wall, Wish You Were Here, Animals\n" +
		"- Lyrics keywords\n" +
		"- Year or decade"
}
