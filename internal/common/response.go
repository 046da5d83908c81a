package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
)

// Responder renders the client-facing JSON envelope. Dev controls error
// verbosity: in development the raw error and a stack trace are included,
// otherwise unclassified failures collapse to a generic message.
type Responder struct {
	Dev bool
}

func NewResponder(dev bool) *Responder {
	return &Responder{Dev: dev}
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

func (rp *Responder) JSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Error normalizes any failure into the error envelope.
func (rp *Responder) Error(w http.ResponseWriter, err error) {
	env := errorEnvelope{Success: false, Message: clientMessage(err, rp.Dev)}
	if rp.Dev {
		env.Err = err.Error()
		env.Stack = string(debug.Stack())
	}
	rp.JSON(w, HTTPStatusFromError(err), env)
}

func clientMessage(err error, dev bool) string {
	var opErr *Error
	switch {
	case errors.As(err, &opErr):
		return opErr.Message
	case errors.Is(err, ErrTokenExpired):
		return "Your token has expired! Please login again"
	case errors.Is(err, ErrInvalidToken):
		return "Invalid token! Please login again"
	case errors.Is(err, ErrNotAuthenticated):
		return "You are not logged in! Please login to get access"
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action"
	case errors.Is(err, ErrNotImplemented):
		return "The request method is not supported by the server and cannot be handled"
	case errors.Is(err, ErrDuplicate):
		return "Duplicate field value, please use another value"
	case errors.Is(err, ErrNotFound):
		return "Requested resource not found"
	}
	if dev {
		return err.Error()
	}
	return "Something went wrong"
}
