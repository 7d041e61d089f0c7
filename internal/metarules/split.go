package metarules

import (
	"regexp"
	"strings"

	"github.com/lmasson/cadence/internal/track"
)

var (
	andWordRe = regexp.MustCompile(`(?i)\band\b`)
	aWordRe   = regexp.MustCompile(`(?i)\ba\b`)
)

// Stop words that make splitting on a stand-alone "a" nonsensical, keyed by
// whether they appear immediately before or after it. "Me and a Friend" and
// "Live at a Venue" must survive intact.
var (
	skipBeforeA = wordSet("the", "a", "an", "in", "on", "at", "for", "to",
		"with", "from", "by", "as", "of", "this", "that")
	skipAfterA = wordSet("the", "a", "an", "one", "few", "little", "lot",
		"bit", "great", "good", "bad", "new", "old")
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// splitArtist normalizes multi-artist strings into a single primary artist.
// When the artist field splits into several components, the first becomes the
// artist and the original unsplit string becomes the album artist fallback.
func splitArtist(t track.Track) track.Track {
	normalized := normalizeSeparators(t.Artist)

	components := strings.Split(normalized, ", ")
	if len(components) <= 1 {
		return t
	}

	primary := strings.TrimSpace(components[0])
	if t.AlbumArtist == "" {
		t.AlbumArtist = t.Artist
	}
	t.Artist = primary
	return t
}

// normalizeSeparators rewrites the separators joining multiple artists
// ("&", " / ", the word "and", a guarded stand-alone "a") into ", ", then
// collapses duplicated separators and trims the edges.
func normalizeSeparators(artist string) string {
	result := strings.ReplaceAll(artist, "&", ", ")
	result = strings.ReplaceAll(result, " / ", ", ")
	result = andWordRe.ReplaceAllString(result, ", ")

	// Back to front so earlier byte offsets stay valid.
	matches := aWordRe.FindAllStringIndex(result, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if shouldSplitOnA(result, m[0], m[1]) {
			result = result[:m[0]] + ", " + result[m[1]:]
		}
	}

	for strings.Contains(result, ", ,") {
		result = strings.ReplaceAll(result, ", ,", ", ")
	}
	for strings.Contains(result, " ,") {
		result = strings.ReplaceAll(result, " ,", ", ")
	}

	return strings.Trim(result, ", ")
}

// shouldSplitOnA guards the stand-alone "a" separator: it never splits at
// the edges of the string, next to an existing separator, or next to a stop
// word that suggests "a" is part of a phrase.
func shouldSplitOnA(text string, start, end int) bool {
	words := strings.Split(text, " ")

	idx := -1
	offset := 0
	for i, w := range words {
		wordStart, wordEnd := offset, offset+len(w)
		offset = wordEnd + 1
		if start >= wordStart && end <= wordEnd {
			idx = i
			break
		}
	}

	if idx <= 0 || idx >= len(words)-1 {
		return false
	}

	before := strings.ToLower(words[idx-1])
	after := strings.ToLower(words[idx+1])

	if before == "" || before == "," || strings.HasSuffix(before, ",") {
		return false
	}
	if skipBeforeA[before] || skipAfterA[after] {
		return false
	}
	return true
}
