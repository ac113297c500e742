package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/solatrade/clmm-go/config"
)

func TestNew(t *testing.T) {
	cases := []struct {
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{config.LogConfig{}, zapcore.InfoLevel},
		{config.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{config.LogConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel},
		{config.LogConfig{Level: "error"}, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		log, err := New(tc.cfg)
		if err != nil {
			t.Fatalf("New(%+v) error: %v", tc.cfg, err)
		}
		if !log.Core().Enabled(tc.level) {
			t.Errorf("New(%+v) does not enable %v", tc.cfg, tc.level)
		}
		if tc.level > zapcore.DebugLevel && log.Core().Enabled(tc.level-1) {
			t.Errorf("New(%+v) enables %v below the configured level", tc.cfg, tc.level-1)
		}
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("New() with an invalid level returned nil error")
	}
	if _, err := New(config.LogConfig{Format: "xml"}); err == nil {
		t.Fatal("New() with an invalid format returned nil error")
	}
}
