// Package lspd is the session engine: a framed JSON-RPC dispatcher
// built over internal/rpcframe, an open-document registry backed by
// internal/docstore, and a cooperative cancellation path reaching into
// internal/searchexec's spawned children. It plays the same role for
// this server that the teacher's internal/tools/lsp.Server plays for
// Orizon's full-featured LSP, generalized to dispatch slow handlers
// onto background workers instead of running everything inline.
package lspd

import "encoding/json"

// request is the wire shape of a JSON-RPC request or notification. A
// notification omits ID.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// response is the wire shape of a JSON-RPC response: exactly one of
// Result/Error is ever written, but Result must serialize as an
// explicit JSON null rather than being dropped — spec.md's own example
// responses (e.g. "result:null" for shutdown and for hover-on-unknown-
// document) depend on the key being present. A plain struct tag can't
// express "omit only when Error is set, never merely because Result is
// nil," so MarshalJSON builds the object by hand.
type response struct {
	JSONRPC string
	ID      json.RawMessage
	Result  any
	Error   *respError
}

func (r response) MarshalJSON() ([]byte, error) {
	obj := map[string]any{"jsonrpc": r.JSONRPC}
	if len(r.ID) > 0 {
		obj["id"] = r.ID
	}
	if r.Error != nil {
		obj["error"] = r.Error
	} else {
		obj["result"] = r.Result
	}
	return json.Marshal(obj)
}

type respError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	errMethodNotFound = -32601
	errInternal       = -32603
	errCancelled      = -32800
)
