package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:        "test-client",
				ClientSecret:    "test-secret",
				RefreshToken:    "test-token",
				SpreadsheetName: "Tax Intel",
				BatchSize:       100,
				RetryAttempts:   3,
				RetryDelay:      time.Second,
			},
		},
		{
			name: "token file stands in for refresh token",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				TokenFile:     "/tmp/token.json",
				SpreadsheetID: "abc",
				BatchSize:     100,
			},
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetID:      "abc",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:        "test-client",
				RefreshToken:    "test-token",
				SpreadsheetName: "Tax Intel",
				BatchSize:       100,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetName:    "Tax Intel",
				BatchSize:          100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "no spreadsheet",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
			wantErr: true,
			errMsg:  "spreadsheet id or name is required",
		},
		{
			name: "invalid batch size",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetName:    "Tax Intel",
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retry attempts",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetName:    "Tax Intel",
				BatchSize:          100,
				RetryAttempts:      -1,
			},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetName:    "Tax Intel",
				BatchSize:          100,
				RetryDelay:         -time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.True(t, config.EnableFormatting)
	assert.Equal(t, DefaultSpreadsheetName, config.SpreadsheetName)
	assert.Equal(t, "Analysis", config.SheetTitle)
	assert.Equal(t, 500, config.BatchSize)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}
