package metarules

// DefaultReplacementRules returns the rule set the engine ships with:
// localized streaming-radio suffix stripping for titles and albums, dash
// normalization for albums, and semicolon separators for artists.
func DefaultReplacementRules() []ReplacementRule {
	titleRadio := func(pattern string) ReplacementRule {
		r := NewReplacementRule(pattern, "")
		r.TargetFields = []string{FieldTitle}
		return r
	}
	albumRadio := func(pattern string) ReplacementRule {
		r := NewReplacementRule(pattern, "")
		r.TargetFields = []string{FieldAlbum}
		return r
	}

	dashNorm := NewReplacementRule(`\s*[—–]\s*`, " - ")
	dashNorm.TargetFields = []string{FieldAlbum}

	semicolons := NewReplacementRule(";", ", ")
	semicolons.TargetFields = []string{FieldArtist}

	return []ReplacementRule{
		titleRadio(`\s*([—–])\s*Radio\s*$`),
		titleRadio(`\s*([—–])\s*电台\s*$`),
		titleRadio(`\s*([—–])\s*ラジオ\s*$`),
		albumRadio(`\s*([—–])\s*Radio\s*$`),
		albumRadio(`\s*([—–])\s*电台\s*$`),
		albumRadio(`\s*([—–])\s*ラジオ\s*$`),
		dashNorm,
		semicolons,
	}
}
