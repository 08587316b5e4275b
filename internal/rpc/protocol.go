// Package rpc serves the JSON-RPC 2.0 endpoint. Methods are named
// "<namespace>.<action>" and either run anonymously or behind the session guard.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes. CodeUnauthorized is in the implementation-defined
// server error range.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUnauthorized   = -32001
)

const version = "2.0"

var nullID = json.RawMessage("null")

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  json.RawMessage `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response. When Error is nil the response carries
// "result", null included; otherwise it carries "error" and no result.
type Response struct {
	JSONRPC string
	Result  any
	Error   *Error
	ID      json.RawMessage
}

type resultResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result"`
	ID      json.RawMessage `json:"id"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Error   *Error          `json:"error"`
	ID      json.RawMessage `json:"id"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = nullID
	}
	if r.Error != nil {
		return json.Marshal(errorResponse{JSONRPC: r.JSONRPC, Error: r.Error, ID: id})
	}
	return json.Marshal(resultResponse{JSONRPC: r.JSONRPC, Result: r.Result, ID: id})
}

// Error is a JSON-RPC 2.0 error object. Methods may return one directly to
// choose the code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ErrInvalidParams marks params that are not an object or fail validation.
var ErrInvalidParams = errors.New("invalid params")

// AuthErrorData is the data member of a CodeUnauthorized error.
type AuthErrorData struct {
	Code string `json:"code"`
}
