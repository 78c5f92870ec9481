// Package http wraps chi behind a small router seam and writes every
// response in one JSON envelope
package http

import (
	"cmp"
	"encoding/json"
	"maps"
	stdhttp "net/http"

	perr "gitpulse/internal/platform/errors"
	pnet "gitpulse/internal/platform/net"
)

// Envelope is the body of every JSON response
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Response is what return style handlers hand back
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created is a 201 with data
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// Error defers the status to the error code
func Error(err error) Response { return Response{Body: err} }

// JSON writes v with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// envelope fills the fields every body shares
func envelope(r *stdhttp.Request, status int) Envelope {
	return Envelope{StatusCode: status, Status: stdhttp.StatusText(status), RequestID: pnet.RequestID(r.Context())}
}

// WriteError maps err onto its status and writes the error envelope
func WriteError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status := perr.HTTPStatus(err)
	env := envelope(r, status)
	wire := perr.WireFrom(err)
	env.Code, env.Error, env.Field = wire.Code, wire.Message, wire.Field
	JSON(w, status, env)
}

// Handle adapts a return style handler to net/http
func Handle(h func(*stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).write(w, r) }
}

// write sends resp, an error body becomes the error envelope and 204 has no body
func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	maps.Copy(w.Header(), resp.Header)
	if err, ok := resp.Body.(error); ok && err != nil {
		WriteError(w, r, err)
		return
	}
	switch status := cmp.Or(resp.Status, stdhttp.StatusOK); status {
	case stdhttp.StatusNoContent:
		w.WriteHeader(status)
	default:
		env := envelope(r, status)
		env.Data = resp.Body
		JSON(w, status, env)
	}
}
