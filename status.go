package fanout

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const maxDetailLength = 300

// statusMessage turns a non-2xx status into a message meant for the user.
func statusMessage(status int, body []byte, gateway bool) string {
	detail := providerDetail(body)

	switch {
	case status == http.StatusBadRequest:
		return withDetail("bad request", detail)
	case status == http.StatusUnauthorized:
		return "invalid credential: check the API key"
	case status == http.StatusPaymentRequired:
		return "payment required: insufficient balance"
	case status == http.StatusForbidden:
		return "access forbidden"
	case status == http.StatusNotFound && gateway:
		return "model not found on the gateway: check the model identifier"
	case status == http.StatusNotFound:
		return "model or resource not found: check the API URL"
	case status == http.StatusTooManyRequests:
		return "rate limited, retry later"
	case status >= http.StatusInternalServerError:
		return fmt.Sprintf("server error (code %d), temporarily unavailable", status)
	default:
		return withDetail(fmt.Sprintf("HTTP %d", status), detail)
	}
}

// providerDetail extracts the error message from a provider reply.
//
// Most providers follow `{"error":{"message":"..."}}`, some send a bare
// string in `error` or a top-level `message`. Non-JSON bodies are returned
// truncated.
func providerDetail(body []byte) string {
	raw := strings.TrimSpace(string(body))

	if raw == "" {
		return ""
	}

	if !gjson.Valid(raw) {
		return truncate(raw)
	}

	for _, path := range []string{"error.message", "error", "message", "detail"} {
		if v := gjson.Get(raw, path); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return truncate(strings.TrimSpace(v.String()))
		}
	}

	return truncate(raw)
}

func withDetail(message, detail string) string {
	if detail == "" {
		return message
	}

	return message + ": " + detail
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxDetailLength {
		return s
	}

	return string([]rune(s)[:maxDetailLength]) + "..."
}
