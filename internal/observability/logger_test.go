package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   string
	}{
		{name: "json info", level: "info", format: "json", wantLevel: zapcore.InfoLevel},
		{name: "console debug", level: "debug", format: "console", wantLevel: zapcore.DebugLevel},
		{name: "text alias", level: "warn", format: "text", wantLevel: zapcore.WarnLevel},
		{name: "upper case level", level: "ERROR", format: "json", wantLevel: zapcore.ErrorLevel},
		{name: "defaults", wantLevel: zapcore.InfoLevel},
		{name: "invalid level", level: "verbose", format: "json", wantErr: "invalid log level"},
		{name: "invalid format", level: "info", format: "xml", wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, logger)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, logger)
			defer func() { _ = logger.Sync() }()

			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}
