package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestType is the kind of a post request.
type RequestType string

const (
	RequestInfo   RequestType = "info"
	RequestAction RequestType = "action"
)

type responseType string

const (
	responseInfo   responseType = "info"
	responseAction responseType = "action"
	responseError  responseType = "error"
)

var (
	ErrNotConnected = errors.New("websocket not connected")
	ErrClosed       = errors.New("websocket closed")
)

// PostError is an "error" answer to a post request. Msg is the exchange's
// text as sent.
type PostError struct {
	ID  int64
	Msg string
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post %d failed: %s", e.ID, e.Msg)
}

type postRequest struct {
	Method  string      `json:"method"`
	ID      int64       `json:"id"`
	Request postPayload `json:"request"`
}

type postPayload struct {
	Type    RequestType `json:"type"`
	Payload any         `json:"payload"`
}

// message is any frame the server pushes; only "post" and "pong" channels
// are expected on a post-only connection.
type message struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type postResponse struct {
	ID       int64 `json:"id"`
	Response struct {
		Type    responseType    `json:"type"`
		Payload json.RawMessage `json:"payload"`
	} `json:"response"`
}

type result struct {
	resp postResponse
	err  error
}
