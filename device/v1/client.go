package v1

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"time"
)

// Client is the high-level device client, composing the transport and the
// session manager for one machine. It is not safe for concurrent use: the
// device supports a single session, so callers must not overlap syncs of
// the same machine.
type Client struct {
	Transport *Transport
	Session   *Session
}

// NewClient initializes a device client against http://host:port.
func NewClient(baseURL string, timeout time.Duration, store TokenStore) *Client {
	t := NewTransport(baseURL, timeout)
	return &Client{
		Transport: t,
		Session:   NewSession(t, store),
	}
}

// Login establishes (or reuses) the device session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.Session.Login(ctx, username, password)
}

// Probe checks plain reachability without consuming a session.
func (c *Client) Probe(ctx context.Context) error {
	return c.Transport.Head(ctx, "/")
}

// FetchUsers downloads and parses the device's user listing.
func (c *Client) FetchUsers(ctx context.Context) ([]DeviceUser, error) {
	res, err := c.Transport.Get(ctx, "/csl/user")
	if err != nil {
		return nil, err
	}
	return ParseUserList(bytes.NewReader(res.Body))
}

// FetchReport runs the attendance report for the given date range and
// device pk list. The device expects uid values sorted ascending and the
// period field fixed to 1 (today).
func (c *Client) FetchReport(ctx context.Context, sdate, edate string, uids []string) ([]AttendanceEvent, error) {
	sorted := make([]string, len(uids))
	copy(sorted, uids)
	sort.Strings(sorted)

	res, err := c.Transport.PostForm(ctx, "/csl/report?action=run", url.Values{
		"sdate":  {sdate},
		"edate":  {edate},
		"period": {"1"},
		"uid":    sorted,
	})
	if err != nil {
		return nil, err
	}
	return ParseAttendanceReport(bytes.NewReader(res.Body))
}
