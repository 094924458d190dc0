package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{time.Hour + 5*time.Minute, "1h5m"},
		{25 * time.Hour, "25h0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestServerErrorHint(t *testing.T) {
	err := serverError(errors.New("dial tcp 127.0.0.1:5660: connection refused"))
	assert.Contains(t, err.Error(), "logtap serve")

	plain := errors.New("invalid response")
	assert.Equal(t, plain, serverError(plain))
}
