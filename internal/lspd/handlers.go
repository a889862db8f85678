package lspd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slclangd/slclangd/internal/fileuri"
	"github.com/slclangd/slclangd/internal/lexheur"
	"github.com/slclangd/slclangd/internal/searchexec"
)

// cCppExtensions is the extension allow-list used in workspace search
// mode by every handler below, per spec.md §4.G.
var cCppExtensions = []string{"c", "cc", "cpp", "cxx", "h", "hh", "hpp", "hxx"}

const (
	workspaceSymbolCap = 50
	hoverCap           = 20
	definitionCap      = 20
	referencesCap      = 50

	// definitionStrongScore is the threshold at or above which a single
	// definition match is considered unambiguous enough to jump to
	// directly, instead of returning the full ranked list.
	definitionStrongScore = 60

	symbolKindVariable = 13 // arbitrary, per spec.md §4.G
)

// runSearch dispatches a needle search in whichever mode the server was
// configured for (workspace root, or the fixed --files list), publishing
// cancellation and the child pid through entry so a concurrent
// $/cancelRequest can reach the spawned child. It returns nil without
// spawning anything if entry is already cancelled.
func (s *Server) runSearch(needle string, maxResults int, extensions []string, entry *inflightEntry) []searchexec.Match {
	if entry.cancelled.Load() {
		return nil
	}

	req := searchexec.Request{
		Needle:     needle,
		MaxResults: maxResults,
		Cancelled:  &entry.cancelled,
		ChildPID:   &entry.childPID,
	}
	if len(s.fixedFiles) > 0 {
		req.Files = &searchexec.FileListQuery{Files: s.fixedFiles}
	} else {
		root := s.rootPath
		if root == "" {
			root = "."
		}
		req.Workspace = &searchexec.WorkspaceQuery{Root: root, Extensions: extensions}
	}
	return searchexec.Run(req)
}

// scoreMatches normalizes each grep match to an absolute path and
// attaches its declaration-shape score, ready for lexheur.Rank.
func (s *Server) scoreMatches(matches []searchexec.Match, needle string) []lexheur.Match {
	out := make([]lexheur.Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, lexheur.Match{
			AbsPath: s.normalizePath(m.Path),
			Line:    m.Line,
			Column:  m.Column,
			Text:    m.Text,
			Score:   lexheur.Score(m.Text, m.Column, needle),
		})
	}
	return out
}

func rangeObj(startLine, startCol, endLine, endCol int) map[string]any {
	return map[string]any{
		"start": map[string]any{"line": startLine, "character": startCol},
		"end":   map[string]any{"line": endLine, "character": endCol},
	}
}

func locationFor(absPath string, line, col, tokenLen int) map[string]any {
	return map[string]any{
		"uri":   fileuri.PathToFileURI(absPath),
		"range": rangeObj(line-1, col, line-1, col+tokenLen),
	}
}

func locationsFor(matches []lexheur.Match, tokenLen int) []any {
	out := make([]any, 0, len(matches))
	for _, m := range matches {
		out = append(out, locationFor(m.AbsPath, m.Line, m.Column, tokenLen))
	}
	return out
}

// cursorRequest is the common wire shape of hover/definition/references
// params: a document URI plus a 0-based line/character position.
type cursorRequest struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	} `json:"position"`
}

// resolvedCursor is the subject token extracted from an open document at
// a given cursor, ready to drive a search.
type resolvedCursor struct {
	word    string
	absPath string
	line0   int // 0-based
	col     int // 0-based
}

// resolveCursor extracts and validates the word under the cursor: it
// requires an open document, a cursor not sitting inside a "//" line
// comment, a non-empty word, and a word that is not a stop-word. Any
// failure returns ok=false, which handlers translate into the
// protocol's neutral "no result" value per spec.md §7.
func (s *Server) resolveCursor(req request) (resolvedCursor, bool) {
	var p cursorRequest
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return resolvedCursor{}, false
	}

	text, ok := s.docs.Snapshot(p.TextDocument.URI)
	if !ok {
		return resolvedCursor{}, false
	}

	lineText, ok := lexheur.Line(text, p.Position.Line)
	if !ok {
		return resolvedCursor{}, false
	}
	if lexheur.CursorInLineComment(lineText, p.Position.Character) {
		return resolvedCursor{}, false
	}

	word := lexheur.WordAt(text, p.Position.Line, p.Position.Character)
	if word == "" || lexheur.IsStopWord(word) {
		return resolvedCursor{}, false
	}

	absPath := s.normalizePath(fileuri.FileURIToPath(p.TextDocument.URI))
	return resolvedCursor{word: word, absPath: absPath, line0: p.Position.Line, col: p.Position.Character}, true
}

// handleWorkspaceSymbol implements spec.md §4.G workspace/symbol: needle
// is the raw query, no cursor resolution, no ranking in this variant —
// matches are emitted in search order, capped at 50.
func (s *Server) handleWorkspaceSymbol(req request, entry *inflightEntry) (any, error) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return []any{}, nil
	}
	if p.Query == "" {
		return []any{}, nil
	}

	raw := s.runSearch(p.Query, workspaceSymbolCap, cCppExtensions, entry)
	if entry.cancelled.Load() {
		return []any{}, nil
	}

	out := make([]any, 0, len(raw))
	for _, m := range raw {
		abs := s.normalizePath(m.Path)
		out = append(out, map[string]any{
			"name":          p.Query,
			"kind":          symbolKindVariable,
			"location":      locationFor(abs, m.Line, m.Column, len(p.Query)),
			"containerName": abs,
		})
	}
	return out, nil
}

// handleHover implements spec.md §4.G textDocument/hover: the top-ranked
// match, biased toward the current file, rendered as a Markdown code
// block. The reported range is the zero-width span at the cursor, not
// the matched location.
func (s *Server) handleHover(req request, entry *inflightEntry) (any, error) {
	cur, ok := s.resolveCursor(req)
	if !ok {
		return nil, nil
	}

	raw := s.runSearch(cur.word, hoverCap, cCppExtensions, entry)
	if entry.cancelled.Load() {
		return nil, nil
	}

	ranked := lexheur.Rank(s.scoreMatches(raw, cur.word), lexheur.RankOptions{
		CursorPath:    cur.absPath,
		CursorLine:    cur.line0 + 1,
		PreferredPath: cur.absPath,
	})
	if len(ranked) == 0 {
		return nil, nil
	}

	top := ranked[0]
	contents := fmt.Sprintf("**%s:%d**\n```cpp\n%s\n```", top.AbsPath, top.Line, strings.TrimRight(top.Text, "\r"))
	return map[string]any{
		"contents": map[string]any{"kind": "markdown", "value": contents},
		"range":    rangeObj(cur.line0, cur.col, cur.line0, cur.col),
	}, nil
}

// handleDefinition implements spec.md §4.G textDocument/definition: when
// exactly one ranked match clears the declaration-shape threshold, that
// single location is returned directly so the editor jumps without a
// quick-pick; otherwise every ranked location is returned in order.
// Unlike hover/references, definition does not bias toward the current
// file — declaration shape should win over locality here.
func (s *Server) handleDefinition(req request, entry *inflightEntry) (any, error) {
	cur, ok := s.resolveCursor(req)
	if !ok {
		return nil, nil
	}

	raw := s.runSearch(cur.word, definitionCap, cCppExtensions, entry)
	if entry.cancelled.Load() {
		return nil, nil
	}

	ranked := lexheur.Rank(s.scoreMatches(raw, cur.word), lexheur.RankOptions{
		CursorPath: cur.absPath,
		CursorLine: cur.line0 + 1,
	})
	if len(ranked) == 0 {
		return nil, nil
	}

	strongCount, strongIdx := 0, -1
	for i, m := range ranked {
		if m.Score >= definitionStrongScore {
			strongCount++
			strongIdx = i
		}
	}
	if strongCount == 1 {
		m := ranked[strongIdx]
		return locationFor(m.AbsPath, m.Line, m.Column, len(cur.word)), nil
	}
	return locationsFor(ranked, len(cur.word)), nil
}

// handleReferences implements spec.md §4.G textDocument/references: all
// ranked matches, biased toward the current file.
func (s *Server) handleReferences(req request, entry *inflightEntry) (any, error) {
	cur, ok := s.resolveCursor(req)
	if !ok {
		return []any{}, nil
	}

	raw := s.runSearch(cur.word, referencesCap, cCppExtensions, entry)
	if entry.cancelled.Load() {
		return []any{}, nil
	}

	ranked := lexheur.Rank(s.scoreMatches(raw, cur.word), lexheur.RankOptions{
		CursorPath:    cur.absPath,
		CursorLine:    cur.line0 + 1,
		PreferredPath: cur.absPath,
	})
	return locationsFor(ranked, len(cur.word)), nil
}
