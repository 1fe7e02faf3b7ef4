package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{ServiceName: "lorenz", Encoding: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewRejectsUnknownEncoding(t *testing.T) {
	_, err := New(Config{Encoding: "xml"})
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"Debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"bogus", "fatal", "panic"} {
		_, err := ParseLevel(in)
		assert.ErrorIs(t, err, ErrUnknownLevel, in)
	}
}

func TestValidateEncoding(t *testing.T) {
	assert.NoError(t, ValidateEncoding(""))
	assert.NoError(t, ValidateEncoding("json"))
	assert.NoError(t, ValidateEncoding("console"))
	assert.ErrorIs(t, ValidateEncoding("logfmt"), ErrUnknownEncoding)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.in).Level())
		})
	}
}
