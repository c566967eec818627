package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/nidhogg/echoes/internal/songdb"
)

const defaultSongLimit = 10

type songPage struct {
	Total  int           `json:"total"`
	Songs  []songdb.Song `json:"songs"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (h *Handler) databaseSongs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultSongLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}
	if msg, ok := validatePage(limit, offset); !ok {
		h.writeError(w, http.StatusBadRequest, "Validation Error", msg)
		return
	}

	q := r.URL.Query()
	songs, err := h.lookupSongs(q.Get("mood"), q.Get("album"), year)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Database Error",
			fmt.Sprintf("Failed to retrieve songs: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, paginateSongs(songs, limit, offset))
}

// lookupSongs applies the single-filter precedence: mood, then album, then
// year, then the whole catalog.
func (h *Handler) lookupSongs(mood, album string, year int) ([]songdb.Song, error) {
	switch {
	case mood != "":
		return h.songs.ByMood(mood)
	case album != "":
		return h.songs.ByAlbum(album)
	case year != 0:
		return h.songs.ByYear(year)
	default:
		return h.songs.All(0)
	}
}

type searchRequest struct {
	Query   string `json:"query"`
	Mood    string `json:"mood"`
	Album   string `json:"album"`
	Year    int    `json:"year"`
	YearMin int    `json:"year_min"`
	YearMax int    `json:"year_max"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

func (h *Handler) databaseSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultSongLimit
	}
	if msg, ok := validatePage(req.Limit, req.Offset); !ok {
		h.writeError(w, http.StatusBadRequest, "Validation Error", msg)
		return
	}

	var (
		songs []songdb.Song
		err   error
	)
	switch {
	case req.Query != "":
		songs, err = h.songs.Search(req.Query, req.Mood, req.Album)
	default:
		songs, err = h.lookupSongs(req.Mood, req.Album, req.Year)
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Database Error",
			fmt.Sprintf("Search operation failed: %s", err))
		return
	}

	if req.YearMin != 0 || req.YearMax != 0 {
		songs = filterYearRange(songs, req.YearMin, req.YearMax)
	}

	writeJSON(w, http.StatusOK, paginateSongs(songs, req.Limit, req.Offset))
}

func (h *Handler) databaseStats(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songs.All(0)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Database Error",
			fmt.Sprintf("Statistics calculation failed: %s", err))
		return
	}
	moods, err := h.songs.MoodCounts()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Database Error",
			fmt.Sprintf("Statistics calculation failed: %s", err))
		return
	}

	albums := make(map[string]int)
	minYear, maxYear := 0, 0
	for _, s := range songs {
		albums[s.Album]++
		if minYear == 0 || s.Year < minYear {
			minYear = s.Year
		}
		if s.Year > maxYear {
			maxYear = s.Year
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_songs":  len(songs),
		"total_albums": len(albums),
		"year_range":   map[string]int{"min": minYear, "max": maxYear},
		"moods":        moods,
		"albums":       albums,
	})
}

func (h *Handler) databaseMoods(w http.ResponseWriter, r *http.Request) {
	counts, err := h.songs.MoodCounts()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Database Error",
			fmt.Sprintf("Failed to retrieve moods: %s", err))
		return
	}

	moods := make([]string, 0, len(counts))
	for mood := range counts {
		moods = append(moods, mood)
	}
	sort.Strings(moods)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moods": moods,
		"total": len(moods),
	})
}

func (h *Handler) databaseAlbums(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songs.All(0)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Database Error",
			fmt.Sprintf("Failed to retrieve albums: %s", err))
		return
	}

	seen := make(map[string]bool)
	albums := make([]string, 0)
	for _, s := range songs {
		if !seen[s.Album] {
			seen[s.Album] = true
			albums = append(albums, s.Album)
		}
	}
	sort.Strings(albums)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"albums": albums,
		"total":  len(albums),
	})
}

func validatePage(limit, offset int) (string, bool) {
	if limit < 1 || limit > 100 {
		return "limit must be between 1 and 100", false
	}
	if offset < 0 {
		return "offset must not be negative", false
	}
	return "", true
}

func paginateSongs(songs []songdb.Song, limit, offset int) songPage {
	total := len(songs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := songs[start:end]
	if page == nil {
		page = []songdb.Song{}
	}
	return songPage{Total: total, Songs: page, Limit: limit, Offset: offset}
}

func filterYearRange(songs []songdb.Song, yearMin, yearMax int) []songdb.Song {
	out := make([]songdb.Song, 0, len(songs))
	for _, s := range songs {
		if yearMin != 0 && s.Year < yearMin {
			continue
		}
		if yearMax != 0 && s.Year > yearMax {
			continue
		}
		out = append(out, s)
	}
	return out
}
