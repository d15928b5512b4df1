package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-hexbug/pkg/behavior"
)

func TestEnableTelemetry(t *testing.T) {
	tests := []struct {
		name      string
		httpPort  string
		collector string
		want      bool
	}{
		{"headless", "", "", false},
		{"dashboard only", "8080", "", true},
		{"collector only", "", "ws://host:8090", true},
		{"both", "8080", "ws://host:8090", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := behavior.DefaultConfig()
			cfg.Telemetry = false
			enableTelemetry(&cfg, tt.httpPort, tt.collector)
			assert.Equal(t, tt.want, cfg.Telemetry)
		})
	}
}
