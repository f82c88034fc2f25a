package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevel(t *testing.T) {
	if got := New("debug").GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("level=%s want debug", got)
	}
	if got := New("bogus").GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level=%s want info fallback", got)
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, "info")

	log.Debug().Msg("hidden")
	log.Info().Str("owner_id", "u1").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %s", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, `"owner_id":"u1"`) {
		t.Errorf("missing fields in output: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, "info"))

	log := FromContext(ctx)
	log.Info().Msg("test")
	if buf.Len() == 0 {
		t.Error("expected output from context logger")
	}

	if got := FromContext(context.Background()).GetLevel(); got != zerolog.Disabled {
		t.Errorf("default logger level=%s want disabled", got)
	}
}
