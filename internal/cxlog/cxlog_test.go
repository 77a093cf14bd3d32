package cxlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfgwcec/cfgwcec/internal/cxlog"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := cxlog.New(cxlog.Options{JSON: true, Writer: &buf})

	logger.Debug().Msg("should not appear")
	logger.Info().Msg("should appear")

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "should appear")
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := cxlog.New(cxlog.Options{Level: "debug", JSON: true, Writer: &buf})

	logger.Debug().Msg("now visible")
	require.Contains(t, buf.String(), "now visible")
}

func TestNewEmitsJSONWhenRequested(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := cxlog.New(cxlog.Options{JSON: true, Writer: &buf})
	logger.Info().Str("func", "f").Msg("built cfg")

	out := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	require.Contains(t, out, `"func":"f"`)
}
