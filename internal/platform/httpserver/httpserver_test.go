package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAppliesTimeouts(t *testing.T) {
	srv := New(":8080", http.NewServeMux())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, defaultReadHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, defaultWriteTimeout, srv.WriteTimeout)
	assert.Equal(t, defaultIdleTimeout, srv.IdleTimeout)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	srv := New(":8080", http.NewServeMux(),
		WithWriteTimeout(time.Minute),
		WithIdleTimeout(5*time.Minute),
	)

	assert.Equal(t, time.Minute, srv.WriteTimeout)
	assert.Equal(t, 5*time.Minute, srv.IdleTimeout)
}
