package logging

import (
	"testing"

	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		debug     bool
		expectErr bool
	}{
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, true, false},
		{"json info", config.LogConfig{Level: "info", Format: "json"}, false, false},
		{"default level", config.LogConfig{Format: "json"}, false, false},
		{"bad level", config.LogConfig{Level: "loud", Format: "json"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := logger.Core().Enabled(zap.DebugLevel); got != tt.debug {
				t.Errorf("Expected debug enabled=%v, got %v", tt.debug, got)
			}
		})
	}
}
