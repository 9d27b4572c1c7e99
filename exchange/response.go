package exchange

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/banky/go-hyperliquid-agent/types"
)

// Response is a generic top-level response that can hold any "ok" payload type.
type Response[T any] struct {
	Status       string
	Data         *T     // present when Status == "ok"
	ErrorMessage string // present when Status == "err"
}

// wire-level shape:
//
//	{
//	  "status": "ok" | "err",
//	  "response": <object or string>
//	}
type rawResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// UnmarshalJSON lets Response[T] handle both "ok" (object) and "err" (string)
// using the generic type parameter T for the "ok" payload.
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal raw response: %w", err)
	}

	r.Status = raw.Status
	r.Data = nil
	r.ErrorMessage = ""

	switch raw.Status {
	case "ok":
		var payload T
		if err := json.Unmarshal(raw.Response, &payload); err != nil {
			return fmt.Errorf("unmarshal ok response body: %w", err)
		}
		r.Data = &payload

	case "err":
		var msg string
		if err := json.Unmarshal(raw.Response, &msg); err != nil {
			msg = string(raw.Response)
		}
		r.ErrorMessage = msg

	default:
		var msg string
		if err := json.Unmarshal(raw.Response, &msg); err != nil {
			msg = string(raw.Response)
		}
		if msg == "" {
			msg = fmt.Sprintf("unexpected response status %q", raw.Status)
		}
		r.ErrorMessage = msg
	}

	return nil
}

// Convenience helpers.

func (r Response[T]) IsOK() bool {
	return r.Status == "ok" && r.Data != nil
}

func (r Response[T]) IsErr() bool {
	return !r.IsOK()
}

// ResponseBody is the "response" object of a successful action.
type ResponseBody struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// statusErrors collects the per-item errors of a batch response. Items are
// either plain strings ("success") or objects, of which only those with an
// "error" key failed.
func (b ResponseBody) statusErrors() []string {
	if len(b.Data) == 0 {
		return nil
	}

	var data struct {
		Statuses []json.RawMessage `json:"statuses"`
	}
	if err := json.Unmarshal(b.Data, &data); err != nil {
		return nil
	}

	var errs []string
	for _, s := range data.Statuses {
		var item struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(s, &item); err != nil {
			continue
		}
		if item.Error != nil {
			errs = append(errs, *item.Error)
		}
	}
	return errs
}

func joinStatusErrors(errs []string) string {
	return strings.Join(errs, "; ")
}

// extractStatuses is a generic helper that extracts the statuses slice from the
// raw wire format response containing Type and Data fields.
func extractStatuses[T any](data []byte) ([]T, error) {
	var raw struct {
		Type string          `json:"type"`
		Data ResponseData[T] `json:"data"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return raw.Data.Statuses, nil
}

type ResponseData[T any] struct {
	Statuses []T `json:"statuses"`
}

/*//////////////////////////////////////////////////////////////
                             ORDER
//////////////////////////////////////////////////////////////*/

type OrderStatus struct {
	Resting *OrderStatusResting `json:"resting,omitempty"`
	Filled  *OrderStatusFilled  `json:"filled,omitempty"`
	Error   *string             `json:"error,omitempty"`
}

type OrderStatusResting struct {
	Oid      int64        `json:"oid"`
	ClientId *types.Cloid `json:"cloid,omitempty"`
	Status   string       `json:"status,omitempty"`
}

type OrderStatusFilled struct {
	TotalSz types.FloatString `json:"totalSz"`
	AvgPx   types.FloatString `json:"avgPx"`
	Oid     int64             `json:"oid"`
}

// OrderStatuses decodes the statuses of a successful place or modify
// outcome.
func OrderStatuses(o Outcome) ([]OrderStatus, error) {
	if !o.Success {
		return nil, fmt.Errorf("%s did not succeed", o.Kind)
	}
	return extractStatuses[OrderStatus](o.Data)
}

/*//////////////////////////////////////////////////////////////
                             CANCEL
//////////////////////////////////////////////////////////////*/

// CancelStatus is "success" or an error object.
type CancelStatus struct {
	Success bool
	Error   string
}

func (c *CancelStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Success = s == "success"
		if !c.Success {
			c.Error = s
		}
		return nil
	}

	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal cancel status: %w", err)
	}
	c.Error = obj.Error
	return nil
}

// CancelStatuses decodes the statuses of a successful cancel outcome.
func CancelStatuses(o Outcome) ([]CancelStatus, error) {
	if !o.Success {
		return nil, fmt.Errorf("%s did not succeed", o.Kind)
	}
	return extractStatuses[CancelStatus](o.Data)
}
