package lexheur

// stopWords is the fixed set of C/C++ keywords, alternative tokens, and
// common primitive-width typedefs too common to be useful search
// needles. Matched case-insensitively.
var stopWords = buildStopWords()

func buildStopWords() map[string]struct{} {
	words := []string{
		// C/C++ keywords
		"auto", "break", "case", "char", "const", "continue", "default",
		"do", "double", "else", "enum", "extern", "float", "for", "goto",
		"if", "inline", "int", "long", "register", "restrict", "return",
		"short", "signed", "sizeof", "static", "struct", "switch",
		"typedef", "union", "unsigned", "void", "volatile", "while",
		"class", "namespace", "template", "typename", "public", "private",
		"protected", "virtual", "friend", "this", "new", "delete",
		"operator", "try", "catch", "throw", "using", "explicit", "export",
		"mutable", "constexpr", "noexcept", "decltype", "nullptr", "true",
		"false", "bool", "and", "or", "not", "xor", "override", "final",

		// alternative tokens / coroutine keywords
		"co_await", "co_yield", "co_return", "and_eq", "or_eq", "xor_eq",
		"not_eq", "bitand", "bitor", "compl",

		// width-specific primitive aliases / common kernel typedefs
		"int8_t", "int16_t", "int32_t", "int64_t",
		"uint8_t", "uint16_t", "uint32_t", "uint64_t",
		"size_t", "ssize_t", "intptr_t", "uintptr_t", "ptrdiff_t",
		"wchar_t", "char8_t", "char16_t", "char32_t",
		"u8", "u16", "u32", "u64", "s8", "s16", "s32", "s64",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopWord reports whether word (matched case-insensitively) is too
// common or meaningless to be worth searching for.
func IsStopWord(word string) bool {
	_, ok := stopWords[toLowerASCII(word)]
	return ok
}

func toLowerASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
