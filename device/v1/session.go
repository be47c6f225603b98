package v1

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// SessionCookieName is the single cookie the device uses for
// authentication.
const SessionCookieName = "SessionID"

// Token is the device's reusable session cookie. The device caps the number
// of sessions it will issue, so the token is a scarce resource: it is cached
// across runs and only invalidated when the device rejects it.
type Token struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// TokenStore persists the cached token for one machine between sync runs.
// Save and Clear must be durable immediately: a token invalidated mid-run
// must not resurface on the next run.
type TokenStore interface {
	Load() (*Token, error)
	Save(tok *Token) error
	Clear() error
}

// MemoryTokenStore keeps the token in memory, enough for probes and tests.
type MemoryTokenStore struct {
	tok *Token
}

func (s *MemoryTokenStore) Load() (*Token, error) { return s.tok, nil }
func (s *MemoryTokenStore) Save(tok *Token) error { s.tok = tok; return nil }
func (s *MemoryTokenStore) Clear() error          { s.tok = nil; return nil }

// Session manages the login handshake over a transport.
type Session struct {
	transport *Transport
	store     TokenStore
}

func NewSession(transport *Transport, store TokenStore) *Session {
	return &Session{transport: transport, store: store}
}

// Login authenticates the transport against the device.
//
// A cached token is reused directly, skipping cookie acquisition. Without
// one, a bare GET to the base URL asks the device for a new SessionID
// cookie; the device withholding it means session issuance is throttled
// (ErrSessionExhausted), not a client fault.
//
// The console answers the login POST with HTTP 200 whether or not the
// credentials and session were accepted, so success is recognized
// structurally: the logged-in page is a frameset with a frame named "menu".
// A response without it means the token was rejected or expired; the cached
// token is cleared so the next attempt re-acquires from scratch, and
// ErrSessionInvalid is returned.
func (s *Session) Login(ctx context.Context, username, password string) error {
	tok, err := s.store.Load()
	if err != nil {
		return err
	}

	if tok == nil {
		res, err := s.transport.Get(ctx, "/")
		if err != nil {
			return err
		}

		for _, c := range res.Cookies {
			if c.Name == SessionCookieName {
				tok = &Token{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
				break
			}
		}
		if tok == nil {
			return ErrSessionExhausted
		}
		if err := s.store.Save(tok); err != nil {
			return err
		}
	}

	s.transport.SetToken(tok)

	res, err := s.transport.PostForm(ctx, "/csl/check", url.Values{
		"username": {username},
		"userpwd":  {password},
	})
	if err != nil {
		return err
	}

	ok, err := isLoggedInPage(res.Body)
	if err != nil {
		return err
	}
	if !ok {
		s.transport.ClearToken()
		if err := s.store.Clear(); err != nil {
			return err
		}
		return ErrSessionInvalid
	}

	return nil
}

func isLoggedInPage(body []byte) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false, ErrUnexpectedPage
	}
	return doc.Find(`html > frameset > frameset > frame[name=menu]`).Length() > 0, nil
}
