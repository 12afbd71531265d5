package fanout_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/stretchr/testify/mock"
)

// MockTransport records outgoing requests without touching the network.
type MockTransport struct {
	mock.Mock
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (t *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	args := t.Called(req)

	resp, _ := args.Get(0).(*http.Response)

	return resp, args.Error(1)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func completion(content string) string {
	return `{"id":"theid","model":"themodel","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + quote(content) + `}}]}`
}

func quote(s string) string {
	b, _ := json.Marshal(s)

	return string(b)
}

func lookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]

		return v, ok
	}
}

func mockRequestTo(url string) any {
	return mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost && req.URL.String() == url
	})
}
