package utils

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEncryptDecryptAES(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	a, err := EncryptAES([]byte("C1231006815"), key)
	require.NoError(t, err)
	b, err := EncryptAES([]byte("C1231006815"), key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must be random")

	plain, err := DecryptAES(a, key)
	require.NoError(t, err)
	assert.Equal(t, "C1231006815", string(plain))

	_, err = DecryptAES(a, []byte("fedcba9876543210fedcba9876543210"))
	assert.Error(t, err)
	_, err = DecryptAES("AAAA", key)
	assert.Error(t, err)
}

func TestDecodeString(t *testing.T) {
	raw := make([]byte, 32)
	key, err := DecodeString(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = DecodeString(base64.StdEncoding.EncodeToString(raw[:16]))
	assert.Error(t, err)
	_, err = DecodeString("not base64!")
	assert.Error(t, err)
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	assert.Zero(t, ExponentialBackoffWithJitter(0, time.Second, time.Minute))
	assert.Zero(t, ExponentialBackoffWithJitter(1, 0, time.Minute))

	for attempt := 1; attempt <= 4; attempt++ {
		want := time.Duration(1<<(attempt-1)) * 100 * time.Millisecond
		got := ExponentialBackoffWithJitter(attempt, 100*time.Millisecond, time.Minute)
		assert.GreaterOrEqual(t, got, want-want/8, "attempt %d", attempt)
		assert.Less(t, got, want+want/8, "attempt %d", attempt)
	}

	assert.Equal(t, 500*time.Millisecond, ExponentialBackoffWithJitter(20, 100*time.Millisecond, 500*time.Millisecond))
}

func TestNewHTTPClient(t *testing.T) {
	assert.Equal(t, defaultClientTimeout, NewHTTPClient().Timeout)
	assert.Equal(t, 7*time.Second, NewHTTPClient(WithClientTimeout(7*time.Second)).Timeout)
}

type sampleConfig struct {
	Port    string `mapstructure:"PORT" validate:"required"`
	Retries int    `mapstructure:"RETRIES" validate:"min=1"`
	Plain   string `validate:"required"`
}

func TestFormatConfigErrors(t *testing.T) {
	cfg := sampleConfig{}
	err := validator.New().Struct(cfg)
	require.Error(t, err)

	out := FormatConfigErrors(zap.NewNop(), err, cfg)

	assert.ErrorContains(t, out, "APP_PORT (required)")
	assert.ErrorContains(t, out, "APP_RETRIES (min=1)")
	assert.ErrorContains(t, out, "Plain (required)")
}

func TestFormatConfigErrors_PassesThroughOtherErrors(t *testing.T) {
	other := errors.New("decode failed")

	assert.Equal(t, other, FormatConfigErrors(zap.NewNop(), other, &sampleConfig{}))
}
