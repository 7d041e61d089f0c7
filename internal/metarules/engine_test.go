//nolint:goconst // test file with repeated string literals
package metarules

import (
	"testing"
	"time"

	"github.com/lmasson/cadence/internal/track"
)

func testTrack(artist, title string) track.Track {
	return track.New(title, artist, 200*time.Second, track.StatePlaying)
}

func TestFilterLogic_TruthTable(t *testing.T) {
	// Rules are evaluated against "artist - title". The track below yields
	// "Artist - Title"; "Title" matches, "XYZ" does not.
	cases := []struct {
		logic   FilterLogic
		pattern string
		pass    bool
	}{
		{LogicExclude, "Title", false},
		{LogicExclude, "XYZ", true},
		{LogicInclude, "Title", true},
		{LogicInclude, "XYZ", false},
		{LogicIncludeAny, "Title", true},
		{LogicIncludeAny, "XYZ", true},
		{LogicExcludeAny, "Title", false},
		{LogicExcludeAny, "XYZ", true},
		{LogicAll, "Title", true},
		{LogicAll, "XYZ", false},
		{LogicNone, "Title", false},
		{LogicNone, "XYZ", true},
	}

	for _, tc := range cases {
		e := &Engine{}
		rule := NewFilterRule(tc.pattern)
		rule.Logic = tc.logic
		e.AddFilterRule(rule)

		got := e.passesFilters(testTrack("Artist", "Title"))
		if got != tc.pass {
			t.Errorf("logic=%s pattern=%q: pass=%v, want %v", tc.logic, tc.pattern, got, tc.pass)
		}
	}
}

func TestFilter_EmptyRuleSetPasses(t *testing.T) {
	e := &Engine{}
	if !e.passesFilters(testTrack("Artist", "Title")) {
		t.Error("empty rule set must pass everything")
	}
}

func TestFilter_DisabledRulesPass(t *testing.T) {
	e := &Engine{}
	rule := NewFilterRule("Title")
	rule.Enabled = false
	e.AddFilterRule(rule)

	if !e.passesFilters(testTrack("Artist", "Title")) {
		t.Error("disabled rules must not apply")
	}
}

func TestFilter_MatchTypes(t *testing.T) {
	tr := testTrack("Artist", "Title")

	exact := NewFilterRule("Artist - Title")
	exact.MatchType = MatchExact
	exact.Logic = LogicInclude
	e := &Engine{}
	e.AddFilterRule(exact)
	if !e.passesFilters(tr) {
		t.Error("exact match on full text should pass include rule")
	}

	contains := NewFilterRule("st - Ti")
	contains.MatchType = MatchContains
	contains.Logic = LogicInclude
	e = &Engine{}
	e.AddFilterRule(contains)
	if !e.passesFilters(tr) {
		t.Error("substring match should pass include rule")
	}
}

func TestFilter_RejectedTrackUnmodified(t *testing.T) {
	e := NewEngine()
	e.AddFilterRule(NewFilterRule("Advert"))

	in := testTrack("Station Advert", "Buy Things — Radio")
	out := e.Process(in)

	if out.Title != in.Title || out.Artist != in.Artist {
		t.Error("rejected track must skip replacement and splitting stages")
	}
}

func TestReplacement_Ordering(t *testing.T) {
	e := &Engine{}

	a := NewReplacementRule("foo", "bar")
	a.TargetFields = []string{FieldTitle}
	b := NewReplacementRule("bar", "baz")
	b.TargetFields = []string{FieldTitle}
	e.AddRule(a)
	e.AddRule(b)

	out := e.Process(testTrack("Artist", "foo"))
	if out.Title != "baz" {
		t.Errorf("Title = %q, want %q (rule A's output must feed rule B)", out.Title, "baz")
	}
}

func TestReplacement_BackrefsStripped(t *testing.T) {
	e := &Engine{}

	r := NewReplacementRule(`(foo) (bar)`, "$1-$$2-kept")
	r.TargetFields = []string{FieldTitle}
	e.AddRule(r)

	out := e.Process(testTrack("Artist", "foo bar"))
	if out.Title != "--kept" {
		t.Errorf("Title = %q, want %q (backrefs must never expand)", out.Title, "--kept")
	}
}

func TestReplacement_InvalidPatternSkipped(t *testing.T) {
	e := &Engine{}

	bad := NewReplacementRule("[", "x")
	bad.TargetFields = []string{FieldTitle}
	good := NewReplacementRule("foo", "bar")
	good.TargetFields = []string{FieldTitle}
	e.AddRule(bad)
	e.AddRule(good)

	out := e.Process(testTrack("Artist", "foo"))
	if out.Title != "bar" {
		t.Errorf("Title = %q, want %q (invalid pattern must not abort the pipeline)", out.Title, "bar")
	}
}

func TestReplacement_UnknownFieldIgnored(t *testing.T) {
	e := &Engine{}
	r := NewReplacementRule("foo", "bar")
	r.TargetFields = []string{"genre"}
	e.AddRule(r)

	out := e.Process(testTrack("Artist", "foo"))
	if out.Title != "foo" {
		t.Errorf("Title = %q, unknown target field must be a no-op", out.Title)
	}
}

func TestReplacement_EmptyTargetFieldsNoop(t *testing.T) {
	e := &Engine{}
	r := NewReplacementRule("foo", "bar")
	r.TargetFields = nil
	e.AddRule(r)

	out := e.Process(testTrack("foo", "foo"))
	if out.Title != "foo" || out.Artist != "foo" {
		t.Error("rule with no target fields must be a no-op")
	}
}

func TestDefaultRules_RadioSuffix(t *testing.T) {
	e := NewEngine()

	out := e.Process(testTrack("Artist", "Song — Radio"))
	if out.Title != "Song" {
		t.Errorf("Title = %q, want %q", out.Title, "Song")
	}

	// ASCII dash is not a radio decoration.
	out = e.Process(testTrack("Artist", "Song - Radio"))
	if out.Title != "Song - Radio" {
		t.Errorf("Title = %q, ASCII dash must not be stripped", out.Title)
	}
}

func TestDefaultRules_LocalizedRadioSuffix(t *testing.T) {
	e := NewEngine()

	out := e.Process(testTrack("Artist", "歌曲 – 电台"))
	if out.Title != "歌曲" {
		t.Errorf("Title = %q, want %q", out.Title, "歌曲")
	}
}

func TestDefaultRules_SemicolonArtists(t *testing.T) {
	e := NewEngine()

	out := e.Process(testTrack("First; Second", "Song"))
	if out.Artist != "First" {
		t.Errorf("Artist = %q, want %q", out.Artist, "First")
	}
	// The album-artist fallback is the replaced-but-unsplit artist string.
	if out.AlbumArtist != "First,  Second" {
		t.Errorf("AlbumArtist = %q, want pre-split string", out.AlbumArtist)
	}
}

func TestProcess_PipelineIdempotent(t *testing.T) {
	e := NewEngine()

	inputs := []track.Track{
		testTrack("X & Y", "Song — Radio"),
		testTrack("First; Second", "Song"),
		testTrack("Me and a Friend", "Song"),
		testTrack("Solo Artist", "Plain Song"),
	}

	for _, in := range inputs {
		once := e.Process(in)
		twice := e.Process(once)
		if once.Title != twice.Title || once.Artist != twice.Artist ||
			once.Album != twice.Album || once.AlbumArtist != twice.AlbumArtist {
			t.Errorf("pipeline not idempotent for %q: %+v vs %+v", in.DisplayName(), once, twice)
		}
	}
}

func TestCRUD_ResetRules(t *testing.T) {
	e := NewEngine()
	defaults := len(e.Rules())

	custom := NewReplacementRule("x", "y")
	e.AddRule(custom)
	filter := NewFilterRule("adverts")
	e.AddFilterRule(filter)

	if len(e.Rules()) != defaults+1 {
		t.Fatalf("Rules() = %d, want %d", len(e.Rules()), defaults+1)
	}

	e.ResetRules()

	if len(e.Rules()) != defaults {
		t.Errorf("ResetRules must restore the default replacement set")
	}
	if len(e.FilterRules()) != 1 {
		t.Errorf("ResetRules must leave filter rules untouched")
	}
}

func TestCRUD_Remove(t *testing.T) {
	e := &Engine{}
	r := NewReplacementRule("x", "y")
	e.AddRule(r)
	e.RemoveRule(r.ID)
	if len(e.Rules()) != 0 {
		t.Error("RemoveRule should remove the rule")
	}
}
