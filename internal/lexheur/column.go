// Package lexheur implements the line-level heuristics that stand in
// for a real C/C++ front end: column resolution inside a matched line,
// word-at-cursor extraction, a stop-word filter, and a declaration-shape
// scorer feeding the match ranker.
//
// None of this parses C/C++. It is intentionally line-oriented and
// blind to multi-line block comments and raw string literals; see the
// package-level FindColumn0 doc for the precise boundary.
package lexheur

// FindColumn0 returns the 0-based byte offset of needle's first "code"
// occurrence on line, or -1 to reject the line entirely.
//
// A line is rejected outright if its first two non-whitespace bytes are
// "//" (comment-only line). Otherwise each candidate occurrence of
// needle is tested against a string-literal tracker that scans from
// byte 0 of the line, toggling an in-string flag on every unescaped '"'.
// A '"' is escaped iff it is preceded by an odd number of consecutive
// backslashes. The first candidate that lands outside a string wins; if
// every candidate is inside a string, FindColumn0 returns -1.
//
// This does not understand /* */ blocks, raw string literals, or
// character literals — a needle inside one of those will be accepted as
// if it were ordinary code. That is a deliberate, documented limitation
// of a pure lexical pass, not a bug.
func FindColumn0(line, needle string) int {
	if needle == "" {
		return -1
	}
	if isCommentOnlyLine(line) {
		return -1
	}

	start := 0
	for {
		idx := indexFrom(line, needle, start)
		if idx < 0 {
			return -1
		}
		if !inStringLiteral(line, idx) {
			return idx
		}
		start = idx + 1
	}
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	rel := indexString(s[from:], sub)
	if rel < 0 {
		return -1
	}
	return from + rel
}

// indexString is a local byte-wise substring search (the first index of
// sub in s, or -1), so this package imports nothing from strings.
func indexString(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 || m > n {
		if m == 0 {
			return 0
		}
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

func isCommentOnlyLine(line string) bool {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i+1 < len(line) && line[i] == '/' && line[i+1] == '/'
}

// inStringLiteral reports whether byte offset pos in line falls inside
// a double-quoted string literal, per the toggle-on-unescaped-quote scan
// described on FindColumn0.
func inStringLiteral(line string, pos int) bool {
	inString := false
	backslashRun := 0
	for i := 0; i < pos; i++ {
		c := line[i]
		if c == '\\' {
			backslashRun++
			continue
		}
		if c == '"' && backslashRun%2 == 0 {
			inString = !inString
		}
		backslashRun = 0
	}
	return inString
}

// CursorInLineComment reuses the same string-tracking scan FindColumn0
// uses: if an unescaped "//" pair is encountered outside of a quoted
// string at or before cursorCol, the cursor sits inside a line comment.
func CursorInLineComment(line string, cursorCol int) bool {
	inString := false
	backslashRun := 0
	for i := 0; i < len(line) && i <= cursorCol; i++ {
		c := line[i]
		if c == '\\' {
			backslashRun++
			continue
		}
		if c == '"' && backslashRun%2 == 0 {
			inString = !inString
			backslashRun = 0
			continue
		}
		if !inString && c == '/' && i+1 < len(line) && line[i+1] == '/' {
			return i <= cursorCol
		}
		backslashRun = 0
	}
	return false
}

func isWordByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_':
		return true
	}
	return false
}

// WordAt returns the maximal contiguous run of [A-Za-z0-9_] bytes on
// the given line of text covering (line, col), a 0-based line/column
// pair. If col sits exactly at the end of a word (end-of-line, word
// boundary) the lookup backs up by one column so a cursor placed
// immediately after the last character of a word still identifies that
// word. Returns "" if no word is adjacent.
func WordAt(text string, line, col int) string {
	lineText, ok := lineAt(text, line)
	if !ok {
		return ""
	}
	if col < 0 {
		col = 0
	}

	lookupCol := col
	if lookupCol >= len(lineText) {
		// End-of-line: back up by one so a cursor placed immediately
		// after the last character of a word still resolves that word.
		lookupCol = lookupCol - 1
	}
	if lookupCol < 0 || lookupCol >= len(lineText) || !isWordByte(lineText[lookupCol]) {
		return ""
	}

	start := lookupCol
	for start > 0 && isWordByte(lineText[start-1]) {
		start--
	}
	end := lookupCol + 1
	for end < len(lineText) && isWordByte(lineText[end]) {
		end++
	}
	return lineText[start:end]
}

// Line returns the 0-based line-indexed slice of text, stripping no
// trailing '\r' (callers that need a clean line for display should trim
// it themselves). Exported so handlers can extract the cursor's line
// and pass it to CursorInLineComment.
func Line(text string, line int) (string, bool) {
	return lineAt(text, line)
}

func lineAt(text string, line int) (string, bool) {
	if line < 0 {
		return "", false
	}
	lineStart := 0
	cur := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			if cur == line {
				return text[lineStart:i], true
			}
			cur++
			lineStart = i + 1
		}
	}
	if cur == line {
		return text[lineStart:], true
	}
	return "", false
}
