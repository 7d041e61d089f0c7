package metarules

import (
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/lmasson/cadence/internal/track"
)

// Engine holds the two ordered rule collections and applies them to track
// snapshots. Processing is deterministic for a given rule set.
type Engine struct {
	mu               sync.RWMutex
	replacementRules []ReplacementRule
	filterRules      []FilterRule
}

// NewEngine creates an engine pre-populated with the default replacement
// rules and no filter rules.
func NewEngine() *Engine {
	return &Engine{replacementRules: DefaultReplacementRules()}
}

// Process runs a snapshot through the full pipeline: filter, replacements,
// artist splitting. A track rejected by the filter stage is returned
// unmodified; rejection is a short-circuit, not an error.
func (e *Engine) Process(t track.Track) track.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.passesFilters(t) {
		return t
	}

	t = e.applyReplacements(t)
	return splitArtist(t)
}

// Accepts reports whether the filter stage passes the track. Callers that
// must distinguish "rejected" from "passed through unchanged" use this
// alongside Process.
func (e *Engine) Accepts(t track.Track) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.passesFilters(t)
}

// passesFilters evaluates enabled filter rules in order against the track's
// "artist - title" text. An empty or all-disabled rule set passes everything.
func (e *Engine) passesFilters(t track.Track) bool {
	text := t.DisplayName()

	for i := range e.filterRules {
		rule := &e.filterRules[i]
		if !rule.Enabled {
			continue
		}

		matched := rule.matches(text)
		switch rule.Logic {
		case LogicExclude, LogicExcludeAny, LogicNone:
			if matched {
				return false
			}
		case LogicInclude, LogicAll:
			if !matched {
				return false
			}
		case LogicIncludeAny:
			if matched {
				return true
			}
		}
	}

	return true
}

// applyReplacements runs each enabled replacement rule over its target
// fields, feeding the output of one rule into the next.
func (e *Engine) applyReplacements(t track.Track) track.Track {
	for i := range e.replacementRules {
		rule := &e.replacementRules[i]
		if !rule.Enabled {
			continue
		}
		re := rule.regex()
		if re == nil {
			continue
		}
		replacement := stripBackrefs(rule.Replacement)

		for _, field := range rule.TargetFields {
			switch field {
			case FieldTitle:
				t.Title = re.ReplaceAllLiteralString(t.Title, replacement)
			case FieldArtist:
				t.Artist = re.ReplaceAllLiteralString(t.Artist, replacement)
			case FieldAlbum:
				if t.Album != "" {
					t.Album = re.ReplaceAllLiteralString(t.Album, replacement)
				}
			}
		}
	}
	return t
}

var backrefPattern = regexp.MustCompile(`\$\$?\d+`)

// stripBackrefs removes back-reference placeholders ($1, $$2, ...) from a
// replacement template. Capture groups are matched for stripping purposes
// only and never expanded into the output.
func stripBackrefs(template string) string {
	return backrefPattern.ReplaceAllString(template, "")
}

// AddRule appends a replacement rule to the end of the ordered set.
func (e *Engine) AddRule(r ReplacementRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replacementRules = append(e.replacementRules, r)
}

// RemoveRule removes the replacement rule with the given id.
func (e *Engine) RemoveRule(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.replacementRules {
		if e.replacementRules[i].ID == id {
			e.replacementRules = append(e.replacementRules[:i], e.replacementRules[i+1:]...)
			return
		}
	}
}

// Rules returns a copy of the replacement rule set in order.
func (e *Engine) Rules() []ReplacementRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ReplacementRule, len(e.replacementRules))
	copy(out, e.replacementRules)
	return out
}

// AddFilterRule appends a filter rule to the end of the ordered set.
func (e *Engine) AddFilterRule(r FilterRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filterRules = append(e.filterRules, r)
}

// RemoveFilterRule removes the filter rule with the given id.
func (e *Engine) RemoveFilterRule(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.filterRules {
		if e.filterRules[i].ID == id {
			e.filterRules = append(e.filterRules[:i], e.filterRules[i+1:]...)
			return
		}
	}
}

// FilterRules returns a copy of the filter rule set in order.
func (e *Engine) FilterRules() []FilterRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]FilterRule, len(e.filterRules))
	copy(out, e.filterRules)
	return out
}

// ResetRules replaces the replacement rule set with the defaults. Filter
// rules are left untouched.
func (e *Engine) ResetRules() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replacementRules = DefaultReplacementRules()
}
