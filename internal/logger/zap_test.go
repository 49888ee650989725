package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  zapcore.WarnLevel,
	}
	for input, want := range cases {
		if got := toZapLevel(input); got != want {
			t.Fatalf("level %q: expected %v, got %v", input, want, got)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	t.Parallel()

	log := Nop()
	log.Infow("ignored", "key", "value")
	if log.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected nop core to be disabled")
	}
}
