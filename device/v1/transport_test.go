package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, 20*time.Millisecond)
	_, err := tr.Get(context.Background(), "/")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestTransportStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, 5*time.Second)
	_, err := tr.Get(context.Background(), "/")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestTransportConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tr := NewTransport(srv.URL, 5*time.Second)
	_, err := tr.Get(context.Background(), "/")
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestTransportTooManyRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, 5*time.Second)
	_, err := tr.Get(context.Background(), "/")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}
