package lspd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/slclangd/slclangd/internal/docstore"
	"github.com/slclangd/slclangd/internal/fileuri"
	"github.com/slclangd/slclangd/internal/rpcframe"
)

const (
	serverName    = "super-lazy-clangd"
	serverVersion = "0.1.0"
)

// Server is the LSP session engine: one framed-stdio loop owning the
// document store, the in-flight request registry, and the single
// write mutex guarding the output stream.
type Server struct {
	reader *rpcframe.Reader
	writer *rpcframe.Writer
	writeMu sync.Mutex

	docs *docstore.Store

	rootPath         string
	clangdFileStatus bool

	shutdownReceived atomic.Bool
	exitRequested    atomic.Bool

	inflight *inflightRegistry
	workers  errgroup.Group

	log *slog.Logger

	// fixedFiles, when non-empty, puts every slow handler into
	// file-list search mode instead of workspace mode (the --files
	// CLI collaborator's effect).
	fixedFiles []string
}

// New constructs a Server reading framed messages from r and writing
// them to w. log may be nil, in which case tracing is a no-op.
func New(r io.Reader, w io.Writer, log *slog.Logger, fixedFiles []string) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		reader:     rpcframe.NewReader(r),
		writer:     rpcframe.NewWriter(w),
		docs:       docstore.New(),
		inflight:   newInflightRegistry(),
		log:        log,
		fixedFiles: fixedFiles,
	}
}

// ShutdownReceived reports whether a "shutdown" request was processed
// before the stream ended; the CLI wrapper uses this for exit status.
func (s *Server) ShutdownReceived() bool {
	return s.shutdownReceived.Load()
}

// Run executes the main read/dispatch loop until EOF or "exit". It
// never returns an error for a clean stream close; only a framing
// fault propagates.
func (s *Server) Run() error {
	for {
		body, err := s.reader.ReadMessage()
		if err == io.EOF {
			s.drainWorkers()
			return nil
		}
		if err != nil {
			s.drainWorkers()
			return err
		}

		var req request
		if err := json.Unmarshal(body, &req); err != nil {
			s.log.Warn("discarding unparsable message", "error", err)
			continue
		}
		if req.Method == "" {
			s.log.Warn("discarding message with no method")
			continue
		}
		s.trace(req.Method)

		if len(req.ID) > 0 {
			s.dispatchRequest(req)
		} else {
			s.dispatchNotification(req)
		}

		if s.exitRequested.Load() {
			s.drainWorkers()
			return nil
		}
	}
}

func (s *Server) drainWorkers() {
	_ = s.workers.Wait()
}

func (s *Server) trace(method string) {
	if !traceEnabled() {
		return
	}
	s.log.Info("lsp request", "method", method)
}

func traceEnabled() bool {
	for _, name := range []string{"SLCLANGD_TRACE", "CLANGD_TRACE"} {
		v := strings.TrimSpace(os.Getenv(name))
		if v != "" && v != "0" {
			return true
		}
	}
	return false
}

func (s *Server) dispatchRequest(req request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "shutdown":
		s.shutdownReceived.Store(true)
		s.reply(req.ID, nil)
	case "workspace/executeCommand", "textDocument/switchSourceHeader":
		s.reply(req.ID, nil)
	case "workspace/symbol", "textDocument/hover", "textDocument/definition", "textDocument/references":
		s.dispatchAsync(req)
	default:
		s.replyError(req.ID, errMethodNotFound, "Method not found: "+req.Method)
	}
}

func (s *Server) dispatchNotification(req request) {
	switch req.Method {
	case "initialized", "$/setTrace", "workspace/didChangeConfiguration":
		// ignored
	case "exit":
		s.exitRequested.Store(true)
	case "$/cancelRequest":
		s.handleCancel(req)
	case "textDocument/didOpen":
		s.handleDidOpen(req)
	case "textDocument/didChange":
		s.handleDidChange(req)
	case "textDocument/didClose":
		s.handleDidClose(req)
	}
}

func (s *Server) handleCancel(req request) {
	var p struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	idKey := string(bytes.TrimSpace(p.ID))
	pid := s.inflight.cancel(idKey)
	if pid > 0 {
		_ = unix.Kill(int(pid), unix.SIGTERM)
	}
}

// dispatchAsync creates an in-flight entry under the request id's
// literal JSON text and hands the handler to a background worker. The
// main loop returns immediately to read the next message.
func (s *Server) dispatchAsync(req request) {
	idKey := string(bytes.TrimSpace(req.ID))
	entry := s.inflight.create(idKey)

	s.workers.Go(func() error {
		defer s.inflight.remove(idKey)

		result, err := s.runHandler(req, entry)
		if entry.cancelled.Load() {
			s.replyError(req.ID, errCancelled, "Request cancelled")
			return nil
		}
		if err != nil {
			s.replyError(req.ID, errInternal, "Internal error: "+err.Error())
			return nil
		}
		s.reply(req.ID, result)
		return nil
	})
}

func (s *Server) runHandler(req request, entry *inflightEntry) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()

	switch req.Method {
	case "workspace/symbol":
		return s.handleWorkspaceSymbol(req, entry)
	case "textDocument/hover":
		return s.handleHover(req, entry)
	case "textDocument/definition":
		return s.handleDefinition(req, entry)
	case "textDocument/references":
		return s.handleReferences(req, entry)
	}
	return nil, nil
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return err.Error()
	}
	return "panic: " + toString(p.v)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic value"
}

func (s *Server) reply(id json.RawMessage, result any) {
	resp := response{JSONRPC: "2.0", ID: id, Result: result}
	s.write(resp)
}

func (s *Server) replyError(id json.RawMessage, code int, msg string) {
	resp := response{JSONRPC: "2.0", ID: id, Error: &respError{Code: code, Message: msg}}
	s.write(resp)
}

func (s *Server) notify(method string, params any) {
	body := struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: "2.0", Method: method, Params: params}
	s.write(body)
}

func (s *Server) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal response", "error", err)
		return
	}
	if err := s.writer.WriteMessage(&s.writeMu, data); err != nil {
		s.log.Error("write message", "error", err)
	}
}

func (s *Server) handleInitialize(req request) {
	var params struct {
		RootURI               string `json:"rootUri"`
		RootPath              string `json:"rootPath"`
		InitializationOptions struct {
			ClangdFileStatus bool `json:"clangdFileStatus"`
		} `json:"initializationOptions"`
	}
	_ = json.Unmarshal(req.Params, &params)

	root := params.RootPath
	if root == "" && params.RootURI != "" {
		root = fileuri.FileURIToPath(params.RootURI)
	}
	s.rootPath = root
	s.clangdFileStatus = params.InitializationOptions.ClangdFileStatus

	caps := map[string]any{
		"textDocumentSync": map[string]any{
			"openClose": true,
			"change":    1,
		},
		"hoverProvider":           true,
		"definitionProvider":      true,
		"referencesProvider":      true,
		"workspaceSymbolProvider": true,
	}
	result := map[string]any{
		"capabilities": caps,
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": serverVersion,
		},
	}
	s.reply(req.ID, result)
}

func (s *Server) handleDidOpen(req request) {
	var p struct {
		TextDocument struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"textDocument"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	s.docs.Open(p.TextDocument.URI, p.TextDocument.Text)
	s.notifyFileStatus(p.TextDocument.URI)
}

func (s *Server) handleDidChange(req request) {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
		ContentChanges []struct {
			Text string `json:"text"`
		} `json:"contentChanges"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	if len(p.ContentChanges) == 0 {
		return
	}
	// Full-sync mode only: the last change event carries the whole document.
	s.docs.Replace(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
	s.notifyFileStatus(p.TextDocument.URI)
}

func (s *Server) handleDidClose(req request) {
	var p struct {
		TextDocument struct {
			URI string `json:"uri"`
		} `json:"textDocument"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	s.docs.Close(p.TextDocument.URI)
}

func (s *Server) notifyFileStatus(uri string) {
	if !s.clangdFileStatus {
		return
	}
	s.notify("textDocument/clangd.fileStatus", map[string]any{
		"uri":   uri,
		"state": "Idle",
	})
}

// normalizePath joins a possibly-relative path reported by the search
// tool with the recorded workspace root (falling back to ".") and
// lexically cleans the result.
func (s *Server) normalizePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	root := s.rootPath
	if root == "" {
		root = "."
	}
	return filepath.Clean(filepath.Join(root, p))
}
