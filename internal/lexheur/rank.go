package lexheur

import "sort"

// Match is a scored location ready for ranking, combining a grep hit
// with the declaration-shape score computed over it.
type Match struct {
	AbsPath string
	Line    int // 1-based
	Column  int // 0-based
	Text    string
	Score   int
}

// RankOptions configures the ranker's locality bonus. CursorPath/CursorLine
// identify the location the request originated from (dropped from
// results, never re-suggested); PreferredPath, when non-empty, receives
// a small bonus — used by hover and references to bias toward the
// caller's current file. Definition intentionally leaves PreferredPath
// empty: a definition lookup should prefer declaration shape over
// locality, not the file the cursor happens to be in.
type RankOptions struct {
	CursorPath    string
	CursorLine    int // 1-based; matches are dropped when they equal (CursorPath, CursorLine)
	PreferredPath string
}

const currentFileBonus = 10

// Rank drops the match at the cursor's own location, applies the
// current-file bonus, and stably sorts by (-score, abs_path asc, line
// asc, column asc).
func Rank(matches []Match, opts RankOptions) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if opts.CursorPath != "" && m.AbsPath == opts.CursorPath && m.Line == opts.CursorLine {
			continue
		}
		if opts.PreferredPath != "" && m.AbsPath == opts.PreferredPath {
			m.Score += currentFileBonus
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AbsPath != b.AbsPath {
			return a.AbsPath < b.AbsPath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}
