// Package metarules canonicalizes noisy track metadata before it is compared
// or submitted anywhere. It applies filter rules, then replacement rules,
// then a multi-artist splitting normalization.
package metarules

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// UseCase restricts where a replacement rule applies.
type UseCase string

const (
	UseDisplay  UseCase = "display"
	UseScrobble UseCase = "scrobble"
	UseBoth     UseCase = "both"
)

// Field names a replacement rule can target.
const (
	FieldTitle  = "title"
	FieldArtist = "artist"
	FieldAlbum  = "album"
)

// ReplacementRule rewrites a metadata field with a regex substitution.
// Rules apply in list order, each seeing the previous rule's output.
type ReplacementRule struct {
	ID           uuid.UUID
	Pattern      string
	Replacement  string
	Enabled      bool
	TargetFields []string
	UseCase      UseCase

	compiled   *regexp.Regexp
	compileErr bool
}

// NewReplacementRule creates an enabled rule targeting title and artist.
func NewReplacementRule(pattern, replacement string) ReplacementRule {
	return ReplacementRule{
		ID:           uuid.New(),
		Pattern:      pattern,
		Replacement:  replacement,
		Enabled:      true,
		TargetFields: []string{FieldTitle, FieldArtist},
		UseCase:      UseBoth,
	}
}

// regex returns the compiled pattern, compiling once on first use. A pattern
// that fails to compile makes the rule contribute nothing, never an error.
func (r *ReplacementRule) regex() *regexp.Regexp {
	if r.compiled == nil && !r.compileErr {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			r.compileErr = true
			return nil
		}
		r.compiled = re
	}
	return r.compiled
}

// MatchType selects how a filter pattern is evaluated.
type MatchType string

const (
	MatchRegex    MatchType = "regex"
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// FilterLogic decides what a filter match means for the track.
type FilterLogic string

const (
	LogicInclude    FilterLogic = "include"
	LogicExclude    FilterLogic = "exclude"
	LogicIncludeAny FilterLogic = "includeAny"
	LogicExcludeAny FilterLogic = "excludeAny"
	LogicAll        FilterLogic = "all"
	LogicNone       FilterLogic = "none"
)

// FilterRule decides whether a track passes the pipeline at all. It is
// evaluated against the track's "artist - title" text.
type FilterRule struct {
	ID        uuid.UUID
	Pattern   string
	Enabled   bool
	MatchType MatchType
	Logic     FilterLogic

	compiled   *regexp.Regexp
	compileErr bool
}

// NewFilterRule creates an enabled regex exclude rule.
func NewFilterRule(pattern string) FilterRule {
	return FilterRule{
		ID:        uuid.New(),
		Pattern:   pattern,
		Enabled:   true,
		MatchType: MatchRegex,
		Logic:     LogicExclude,
	}
}

// matches evaluates the rule against the given text. An invalid regex
// pattern never matches.
func (r *FilterRule) matches(text string) bool {
	switch r.MatchType {
	case MatchExact:
		return text == r.Pattern
	case MatchContains:
		return strings.Contains(text, r.Pattern)
	case MatchRegex:
		if r.compiled == nil && !r.compileErr {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				r.compileErr = true
				return false
			}
			r.compiled = re
		}
		if r.compiled == nil {
			return false
		}
		return r.compiled.MatchString(text)
	default:
		return false
	}
}
