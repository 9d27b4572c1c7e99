package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ClientError is a 4xx answer. The request reached the exchange and was
// refused; Msg carries the body text when it is not structured JSON.
type ClientError struct {
	StatusCode int64
	Code       string
	Msg        string
	Headers    http.Header
	Data       any
}

func (e *ClientError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("client error (status %d, %s): %s", e.StatusCode, e.Code, e.Msg)
	}
	return fmt.Sprintf("client error (status %d): %s", e.StatusCode, e.Msg)
}

// ServerError is a 5xx answer.
type ServerError struct {
	StatusCode int64
	Text       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Text)
}

type errorResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func handleException(resp *resty.Response) error {
	statusCode := int64(resp.StatusCode())

	switch {
	case statusCode < 400:
		return nil
	case statusCode >= 500:
		return &ServerError{
			StatusCode: statusCode,
			Text:       string(resp.Body()),
		}
	}

	clientErr := &ClientError{
		StatusCode: statusCode,
		Msg:        string(resp.Body()),
		Headers:    resp.Header(),
	}

	var errResp errorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err != nil {
		return clientErr
	}
	if errResp.Code == "" && errResp.Msg == "" {
		return clientErr
	}

	clientErr.Code = errResp.Code
	clientErr.Msg = errResp.Msg
	clientErr.Data = errResp.Data
	return clientErr
}
