package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// ReadJSONResponse checks the status code and decodes the JSON body into v.
func ReadJSONResponse(t interface {
	Errorf(format string, args ...any)
	FailNow()
}, w *httptest.ResponseRecorder, wantStatus int, v any) {
	if w.Code != wantStatus {
		t.Errorf("expected status %d, got %d: %s", wantStatus, w.Code, w.Body.String())
		t.FailNow()
	}

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Errorf("failed to decode JSON response: %v", err)
		t.FailNow()
	}
}

// ReadErrorResponse decodes an error response body.
func ReadErrorResponse(t interface {
	Errorf(format string, args ...any)
	FailNow()
}, w *httptest.ResponseRecorder) map[string]any {
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Errorf("failed to decode error response: %v", err)
		t.FailNow()
	}
	return response
}

// CreateRequest creates an HTTP request with an optional JSON body. A string
// body is sent verbatim.
func CreateRequest(method, path string, body any, headers map[string]string) *http.Request {
	var data []byte
	switch b := body.(type) {
	case nil:
	case string:
		data = []byte(b)
	default:
		data, _ = json.Marshal(b)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}
