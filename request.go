package fanout

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/chatlist/fanout/llms/openai"
	"github.com/cockroachdb/errors"
)

// maxResponseSize bounds how much of a provider reply is read into memory.
const maxResponseSize = 16 << 20

// Client is a resolved model configuration, ready to send one request.
type Client struct {
	Provider string
	Endpoint string
	Adapter  openai.Adapter
	// Model is the identifier override sent on the wire, only set for
	// gateway endpoints.
	Model *string

	credential string
}

// Do sends the prompt and returns the generated text.
//
// Every failure is returned as an *Error with a user-readable message.
func (c *Client) Do(ctx context.Context, httpClient *http.Client, prompt string) (string, error) {
	body, err := c.Adapter.Body(prompt, c.Model)
	if err != nil {
		return "", c.wrap(newError(KindConfiguration, err, "could not build request: %s", err.Error()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", c.wrap(newError(KindConfiguration, err, "invalid API URL '%s'", c.Endpoint))
	}

	req.Header = c.Adapter.Header(c.credential)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", c.wrap(transportError(err, c.Endpoint, httpClient))
	}

	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", c.wrap(transportError(err, c.Endpoint, httpClient))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := newError(KindProtocol, nil, "%s", statusMessage(resp.StatusCode, payload, c.Adapter.IsGateway()))
		e.Status = resp.StatusCode

		return "", c.wrap(e)
	}

	text, err := c.Adapter.Extract(payload)
	if err != nil {
		return "", c.wrap(newError(KindMalformedResponse, err, "%s", err.Error()))
	}

	if strings.TrimSpace(text) == "" {
		err := errors.Wrap(openai.ErrMalformedResponse, "model returned an empty response")

		return "", c.wrap(newError(KindMalformedResponse, err, "%s", err.Error()))
	}

	return text, nil
}

func (c *Client) wrap(e *Error) *Error {
	e.Endpoint = c.Endpoint

	return e
}

func transportError(err error, endpoint string, httpClient *http.Client) *Error {
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return newError(KindTransport, err, "request to %s timed out after %s", endpoint, httpClient.Timeout)
	case errors.Is(err, context.Canceled):
		return newError(KindTransport, err, "request to %s was canceled", endpoint)
	default:
		return newError(KindTransport, err, "request to %s failed: %s", endpoint, unwrapURLError(err).Error())
	}
}

// unwrapURLError drops the "Post \"<url>\":" prefix the HTTP client adds,
// since the endpoint is already part of the message.
func unwrapURLError(err error) error {
	if inner := errors.UnwrapOnce(err); inner != nil {
		return inner
	}

	return err
}
