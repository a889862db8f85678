package lexheur

// primitiveReturnTypes is the small set of tokens that, appearing
// immediately before an identifier followed by '(', mark that
// identifier as looking like a function declaration/definition rather
// than a call site.
var primitiveReturnTypes = map[string]struct{}{
	"void": {}, "bool": {}, "char": {}, "short": {}, "int": {}, "long": {},
	"float": {}, "double": {}, "signed": {}, "unsigned": {},
	"int8_t": {}, "int16_t": {}, "int32_t": {}, "int64_t": {},
	"uint8_t": {}, "uint16_t": {}, "uint32_t": {}, "uint64_t": {},
	"size_t": {}, "ssize_t": {}, "intptr_t": {}, "uintptr_t": {},
	"wchar_t": {}, "char8_t": {}, "char16_t": {}, "char32_t": {},
	"u8": {}, "u16": {}, "u32": {}, "u64": {},
	"s8": {}, "s16": {}, "s32": {}, "s64": {},
}

func isSpaceByte(b byte) bool { return b == ' ' || b == '\t' }

// Score computes a declaration-shape heuristic score for needle found
// at the given 0-based column in line. A column of -1 (filtered out by
// FindColumn0) short-circuits to -100000. Scores are additive and
// encode ordinal preference only; there is no upper bound.
func Score(line string, column int, needle string) int {
	if column < 0 {
		return -100000
	}

	score := 0

	if macroCol, ok := defineMacroNameCol(line); ok && macroCol == column {
		score += 100
	}

	if column == 0 || (column-1 >= 0 && column-1 < len(line) && isSpaceByte(line[column-1])) {
		score += 25
	}

	if before, ok := nearestNonSpaceBefore(line, column); ok && before == '>' {
		score += 20
	}

	afterPos := column + len(needle)
	if afterPos < len(line) && line[afterPos] == ';' {
		score += 40
	}

	if next, ok := nextNonSpaceAfter(line, afterPos); ok && next == '(' {
		score += 60
		if tok, ok := precedingTypeToken(line, column); ok {
			if _, isPrimitive := primitiveReturnTypes[toLowerASCII(tok)]; isPrimitive {
				score += 30
			}
		}
	}

	return score
}

// defineMacroNameCol returns the 0-based column at which a macro name
// would begin if line matches optional leading whitespace, '#',
// optional whitespace, "define", then at least one whitespace byte.
func defineMacroNameCol(line string) (int, bool) {
	i := 0
	for i < len(line) && isSpaceByte(line[i]) {
		i++
	}
	if i >= len(line) || line[i] != '#' {
		return 0, false
	}
	i++
	for i < len(line) && isSpaceByte(line[i]) {
		i++
	}
	const kw = "define"
	if i+len(kw) > len(line) || line[i:i+len(kw)] != kw {
		return 0, false
	}
	i += len(kw)
	if i >= len(line) || !isSpaceByte(line[i]) {
		return 0, false
	}
	for i < len(line) && isSpaceByte(line[i]) {
		i++
	}
	return i, true
}

func nearestNonSpaceBefore(line string, column int) (byte, bool) {
	i := column - 1
	for i >= 0 && isSpaceByte(line[i]) {
		i--
	}
	if i < 0 {
		return 0, false
	}
	return line[i], true
}

func nextNonSpaceAfter(line string, pos int) (byte, bool) {
	i := pos
	for i < len(line) && isSpaceByte(line[i]) {
		i++
	}
	if i >= len(line) {
		return 0, false
	}
	return line[i], true
}

// precedingTypeToken scans backward from column, skipping interleaved
// '*', '&', ':', '<', '>', ',', '(' and whitespace, and returns the
// identifier-looking token immediately before that run, if any.
func precedingTypeToken(line string, column int) (string, bool) {
	i := column - 1
	for i >= 0 && isSkippableBeforeType(line[i]) {
		i--
	}
	if i < 0 || !isWordByte(line[i]) {
		return "", false
	}
	end := i + 1
	for i >= 0 && isWordByte(line[i]) {
		i--
	}
	start := i + 1
	return line[start:end], true
}

func isSkippableBeforeType(b byte) bool {
	switch b {
	case '*', '&', ':', '<', '>', ',', '(', ' ', '\t':
		return true
	}
	return false
}
