// Package docstore holds the in-memory map from open document URI to
// current full text. Writes happen on the session engine's main
// dispatch thread; Snapshot is safe to call from background search
// workers, which race with main-thread writes by design — a worker may
// observe text from just before or just after a concurrent edit, but
// never a torn one, and never a data race in the Go memory-model sense.
package docstore

import "sync"

// Store is a uri -> text map. The zero value is not usable; use New.
type Store struct {
	mu   sync.RWMutex
	docs map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[string]string)}
}

// Open creates or wholly replaces the text for uri.
func (s *Store) Open(uri, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

// Replace wholly replaces the text for uri, matching full-sync
// textDocument/didChange semantics: the last write wins, no
// per-document versioning is retained.
func (s *Store) Replace(uri, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

// Close removes uri from the store.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Snapshot returns the current text for uri and whether it is open. A
// background worker should call this once, early, to extract the
// substring it needs (e.g. the word under the cursor) before spawning a
// search; if the entry has disappeared by the time Snapshot is called,
// ok is false and the caller should return a neutral empty result.
func (s *Store) Snapshot(uri string) (text string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok = s.docs[uri]
	return text, ok
}
