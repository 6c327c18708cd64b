package holonrpc

import "encoding/json"

// envelope is the wire shape of a JSON-RPC 2.0 message. A single Go type
// covers requests, responses and notifications in both directions — the
// receive loop discriminates on which fields are present, per spec.md
// §4.8's "method present => request path, else result/error => response
// path, else drop".
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *string         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

// wireError uses pointer fields for code/message so a response missing
// either can be told apart from one that legitimately sent a zero code
// or empty message — spec.md §4.8b's "using defaults ... when fields are
// missing" requires presence, not just zero-value, detection.
type wireError struct {
	Code    *int            `json:"code,omitempty"`
	Message *string         `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e envelope) isRequest() bool {
	return e.Method != ""
}

func (e envelope) isResponse() bool {
	return e.Method == "" && (e.Result != nil || e.Error != nil)
}

func newRequestEnvelope(id, method string, params map[string]any) ([]byte, error) {
	paramsRaw, err := json.Marshal(paramsOrEmpty(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  paramsRaw,
	})
}

func newResultEnvelope(id *string, result map[string]any) ([]byte, error) {
	resultRaw, err := json.Marshal(paramsOrEmpty(result))
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		JSONRPC: "2.0",
		ID:      id,
		Result:  resultRaw,
	})
}

func newErrorEnvelope(id *string, code int, message string, data any) ([]byte, error) {
	var dataRaw json.RawMessage
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		dataRaw = raw
	}
	return json.Marshal(envelope{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &wireError{Code: &code, Message: &message, Data: dataRaw},
	})
}

func paramsOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func decodeParams(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func decodeErrorData(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
