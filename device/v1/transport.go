package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxRedirects = 5

// Response carries the body and cookies of a device reply. The device
// console serves windows-1252-ish ASCII, so the body is kept as raw bytes
// and handed to the parser untouched.
type Response struct {
	Body    []byte
	Cookies []*http.Cookie
}

// Transport handles low-level HTTP against one device console. The device
// authenticates with a single cookie rather than headers, so the current
// token is attached manually to every request.
type Transport struct {
	BaseURL    string
	HTTPClient *http.Client

	token *Token
}

// NewTransport creates a transport bound to the device base URL with the
// machine's timeout applied to every request.
func NewTransport(baseURL string, timeout time.Duration) *Transport {
	return &Transport{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
	}
}

// SetToken attaches the cached session cookie to subsequent requests.
func (t *Transport) SetToken(tok *Token) {
	t.token = tok
}

// ClearToken drops the session cookie from subsequent requests.
func (t *Transport) ClearToken() {
	t.token = nil
}

func (t *Transport) buildURL(path string) string {
	u, _ := url.Parse(t.BaseURL + path)
	return u.String()
}

// Get sends a GET request.
func (t *Transport) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.buildURL(path), nil)
	if err != nil {
		return nil, err
	}
	return t.do(req)
}

// PostForm sends a POST request with a form-urlencoded body, the only body
// encoding the console understands.
func (t *Transport) PostForm(ctx context.Context, path string, data url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.buildURL(path), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req)
}

// Head sends a HEAD request, used as a reachability probe without touching
// the session.
func (t *Transport) Head(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.buildURL(path), nil)
	if err != nil {
		return err
	}
	_, err = t.do(req)
	return err
}

func (t *Transport) do(req *http.Request) (*Response, error) {
	if t.token != nil {
		req.AddCookie(&http.Cookie{Name: t.token.Name, Value: t.token.Value})
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	return &Response{
		Body:    body,
		Cookies: resp.Cookies(),
	}, nil
}

// classify maps net/http failures onto the transport error set so callers
// can branch with errors.Is instead of string matching.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr, context.Canceled) {
			return context.Canceled
		}
		if urlErr.Timeout() {
			return ErrTimeout
		}
		if errors.Is(urlErr, ErrTooManyRedirects) {
			return ErrTooManyRedirects
		}
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return err
}
