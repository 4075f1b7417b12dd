// Package probe sends a single login request and reports the raw outcome.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"loginprobe/pkg/config"
	"loginprobe/pkg/errors"
)

// Request is the fixed login attempt.
type Request struct {
	URL     string
	Payload map[string]string
	Headers map[string]string
}

// Response is what came back, untouched.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       string
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultRequest builds the hardcoded login attempt.
func DefaultRequest() Request {
	target := config.Probe()
	return Request{
		URL: target.URL,
		Payload: map[string]string{
			"email":    target.Email,
			"password": target.Password,
		},
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// Run posts req and prints the exchange to out. Any HTTP status is a
// successful run; only a failure to complete the exchange returns an error,
// and in that case no status line is written.
func Run(ctx context.Context, client Doer, req Request, out io.Writer) (*Response, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}

	fmt.Fprintln(out, "Testing login to:", req.URL)
	fmt.Fprintln(out, "Data:", req.Payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Transport("build request", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Transport("send request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Transport("read response body", err)
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       string(raw),
	}

	fmt.Fprintln(out, "Status code:", result.StatusCode)
	fmt.Fprintln(out, "Response headers:", result.Headers)
	fmt.Fprintln(out, "Response body:", result.Body)

	return result, nil
}
