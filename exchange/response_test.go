package exchange

import (
	"encoding/json"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

const (
	okRestingJSON = `
{
   "status":"ok",
   "response":{
      "type":"order",
      "data":{
         "statuses":[
            {
               "resting":{
                  "oid":77738308
               }
            }
         ]
      }
   }
}`

	okErrorStatusJSON = `
{
   "status":"ok",
   "response":{
      "type":"order",
      "data":{
         "statuses":[
            {
               "error":"Order must have minimum value of $10."
            }
         ]
      }
   }
}`

	errTopLevelJSON = `
{
   "status": "err",
   "response": "User or API Wallet 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 does not exist."
}`

	okCancelJSON = `
{
   "status":"ok",
   "response":{
      "type":"cancel",
      "data":{
         "statuses":["success", {"error":"Order was never placed, already canceled, or filled."}]
      }
   }
}`
)

func TestUnmarshalResponse_OK_RestingStatus(t *testing.T) {
	var resp Response[ResponseBody]
	td.Require(t).CmpNoError(json.Unmarshal([]byte(okRestingJSON), &resp))

	td.CmpTrue(t, resp.IsOK())
	td.Cmp(t, resp.ErrorMessage, "")
	td.Cmp(t, resp.Data.Type, "order")
	td.CmpEmpty(t, resp.Data.statusErrors())

	raw, err := json.Marshal(resp.Data)
	td.Require(t).CmpNoError(err)
	statuses, err := OrderStatuses(Outcome{Kind: KindPlaceOrder, Success: true, Data: raw})
	td.Require(t).CmpNoError(err)
	td.Cmp(t, statuses, []OrderStatus{{Resting: &OrderStatusResting{Oid: 77738308}}})
}

func TestUnmarshalResponse_OK_ErrorStatus(t *testing.T) {
	var resp Response[ResponseBody]
	td.Require(t).CmpNoError(json.Unmarshal([]byte(okErrorStatusJSON), &resp))

	td.CmpTrue(t, resp.IsOK())
	td.Cmp(t, resp.Data.statusErrors(), []string{"Order must have minimum value of $10."})
}

func TestUnmarshalResponse_Err_TopLevel(t *testing.T) {
	var resp Response[ResponseBody]
	td.Require(t).CmpNoError(json.Unmarshal([]byte(errTopLevelJSON), &resp))

	td.CmpTrue(t, resp.IsErr())
	td.Cmp(t, resp.Status, "err")
	td.CmpNil(t, resp.Data)
	td.Cmp(t, resp.ErrorMessage, "User or API Wallet 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 does not exist.")
}

func TestUnmarshalResponse_Unexpected(t *testing.T) {
	var resp Response[ResponseBody]

	td.Require(t).CmpNoError(json.Unmarshal([]byte(`{"status":"err","response":{"code":1}}`), &resp))
	td.Cmp(t, resp.ErrorMessage, `{"code":1}`)

	td.Require(t).CmpNoError(json.Unmarshal([]byte(`{"status":"unknown"}`), &resp))
	td.CmpTrue(t, resp.IsErr())
	td.Cmp(t, resp.ErrorMessage, `unexpected response status "unknown"`)

	td.CmpError(t, json.Unmarshal([]byte(`[]`), &resp))
}

func TestCancelStatuses(t *testing.T) {
	var resp Response[ResponseBody]
	td.Require(t).CmpNoError(json.Unmarshal([]byte(okCancelJSON), &resp))

	td.Cmp(t, resp.Data.statusErrors(), []string{"Order was never placed, already canceled, or filled."})

	raw, err := json.Marshal(resp.Data)
	td.Require(t).CmpNoError(err)
	statuses, err := CancelStatuses(Outcome{Kind: KindCancelOrder, Success: true, Data: raw})
	td.Require(t).CmpNoError(err)
	td.Cmp(t, statuses, []CancelStatus{
		{Success: true},
		{Error: "Order was never placed, already canceled, or filled."},
	})

	_, err = CancelStatuses(Outcome{Kind: KindCancelOrder})
	td.CmpError(t, err)
}
