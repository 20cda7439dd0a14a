package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opa-project/opa/encoding/json"
	"github.com/opa-project/opa/exchanges/nonce"
	"github.com/opa-project/opa/log"
)

// New returns a new Requester
func New(name string, httpRequester *http.Client, opts ...RequesterOption) (*Requester, error) {
	if httpRequester == nil {
		return nil, fmt.Errorf("%s: %w", name, errHTTPClientIsNil)
	}
	r := &Requester{
		_HTTPClient: httpRequester,
		name:        name,
		userAgent:   defaultUserAgent,
		seq:         NewSequencer(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// SendPayload handles sending HTTP/HTTPS requests. Authenticated requests are
// dispatched one at a time; the generate function is called only after the
// rate limiter admits the request so any nonce it draws is fresh.
func (r *Requester) SendPayload(ctx context.Context, newRequest Generate, requestType AuthType) error {
	if r == nil {
		return ErrRequestSystemIsNil
	}
	if newRequest == nil {
		return errRequestFunctionIsNil
	}
	if err := r.initiateRateLimit(ctx); err != nil {
		return fmt.Errorf("%w: %s rate limiter: %w", ErrTransport, r.name, err)
	}
	if requestType == AuthenticatedRequest {
		r.seq.mtx.Lock()
		defer r.seq.mtx.Unlock()
	}

	p, err := newRequest()
	if err != nil {
		return err
	}
	if p == nil {
		return errRequestItemNil
	}
	req, err := p.validateRequest(ctx, r)
	if err != nil {
		return err
	}
	return r.doRequest(req, p)
}

// validateRequest validates the requester item fields
func (i *Item) validateRequest(ctx context.Context, r *Requester) (*http.Request, error) {
	if r == nil {
		return nil, ErrRequestSystemIsNil
	}
	if i == nil {
		return nil, errRequestItemNil
	}
	if i.Path == "" {
		return nil, errInvalidPath
	}

	req, err := http.NewRequestWithContext(ctx, i.Method, i.Path, i.Body)
	if err != nil {
		return nil, err
	}
	for k, v := range i.Headers {
		req.Header.Add(k, v)
	}
	if r.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Add("User-Agent", r.userAgent)
	}
	return req, nil
}

func (r *Requester) doRequest(req *http.Request, p *Item) error {
	if p.Verbose {
		log.Infof(log.RequestSys, "%s: sending %s request to %s", r.name, req.Method, redactURL(req.URL))
	}

	start := time.Now()
	resp, err := r._HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s %s: %w", ErrTransport, r.name, req.Method, redactURL(req.URL), err)
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s reading response body: %w", ErrTransport, r.name, err)
	}

	if p.Verbose {
		log.Infof(log.RequestSys, "%s: HTTP status %s in %s, body: %s",
			r.name, resp.Status, time.Since(start).Round(time.Millisecond), truncate(contents))
	}

	statusOK := resp.StatusCode >= http.StatusOK && resp.StatusCode <= http.StatusIMUsed
	if p.Result == nil {
		if !statusOK {
			return fmt.Errorf("%w: %s %w %d", ErrTransport, r.name, errUnexpectedStatus, resp.StatusCode)
		}
		return nil
	}
	if err := json.Unmarshal(contents, p.Result); err != nil {
		if !statusOK {
			return fmt.Errorf("%w: %s %w %d, raw response: %s", ErrTransport, r.name, errUnexpectedStatus, resp.StatusCode, truncate(contents))
		}
		return fmt.Errorf("%w: %s unable to decode response: %w", ErrTransport, r.name, err)
	}
	if !statusOK {
		log.Warnf(log.RequestSys, "%s: HTTP status %d carried a decodable body", r.name, resp.StatusCode)
	}
	return nil
}

// GetJSON performs an unauthenticated GET against an absolute URL and
// decodes the JSON response into result
func (r *Requester) GetJSON(ctx context.Context, path string, result any) error {
	return r.SendPayload(ctx, func() (*Item, error) {
		return &Item{
			Method: http.MethodGet,
			Path:   path,
			Result: result,
		}, nil
	}, UnauthenticatedRequest)
}

// GetNonce returns the next nonce from the requester's Sequencer. Values are
// strictly increasing across every Requester sharing it.
func (r *Requester) GetNonce(set nonce.Setter) nonce.Value {
	return r.seq.nonce.Get(set)
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.RawQuery = ""
	return c.String()
}

func truncate(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > maxResponseBodyLogSize {
		return string(b[:maxResponseBodyLogSize]) + "..."
	}
	return strings.ToValidUTF8(string(b), "?")
}
