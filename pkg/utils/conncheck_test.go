package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:5433/pacelock", "db.local:5433"},
		{"default port", "postgresql://user:pw@db.local/pacelock", "db.local:5432"},
		{"short scheme", "postgres://user@localhost:5432/pacelock?sslmode=disable", "localhost:5432"},
		{"no user", "postgresql://localhost/pacelock", "localhost:5432"},
		{"sqlite file", "pacelock.db", ""},
		{"sqlite url", "sqlite://pacelock.db", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ExtractFromDBURL(tt.url), tt.want)
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	defer l.Close()

	err = WaitForTCP(context.Background(), l.Addr().String(), time.Second)
	assert.NilError(t, err)
}

func TestWaitForTCPTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	addr := l.Addr().String()
	l.Close()

	err = WaitForTCP(context.Background(), addr, 300*time.Millisecond)
	assert.ErrorContains(t, err, "could not be reached")
}
