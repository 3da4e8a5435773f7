package di

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/phish-filter/internal/adapters/filter"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/ports"
	"github.com/mikey/phish-filter/internal/service"
)

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags([]string{"-url", "http://example.tk", "-json", "-threshold", "70", "-offline"})
	require.NoError(t, err)

	assert.Equal(t, "http://example.tk", flags.URL)
	assert.True(t, flags.JSONOutput)
	assert.True(t, flags.Offline)
	assert.Equal(t, 70.0, flags.Threshold)

	defaults, err := ParseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, -1.0, defaults.Threshold)

	_, err = ParseFlags([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestBuildCLIContainerOffline(t *testing.T) {
	flags, err := ParseFlags([]string{"-offline", "-json", "-threshold", "80"})
	require.NoError(t, err)

	var out bytes.Buffer
	container, err := BuildCLIContainer(flags, &out)
	require.NoError(t, err)

	err = container.Invoke(func(cli *filter.CliFilter, verifiers []core.Verifier) {
		assert.Empty(t, verifiers)

		report, err := cli.ProcessInput(context.Background(), core.AnalysisInput{URL: "http://paypal.com.example.tk/login"})
		require.NoError(t, err)
		// 15 + 10 + 10 + 50*sigmoid(1) stays below the raised threshold
		assert.InDelta(t, 71.5529, report.Result.RiskScore, 0.001)
		assert.False(t, report.Result.IsPhishing)
	})
	require.NoError(t, err)

	var result core.AnalysisResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Len(t, result.Reasons, 3)
}

func TestBuildContainer(t *testing.T) {
	t.Setenv("PHISH_FILTER_SERVER_GIN_MODE", "test")
	t.Setenv("PHISH_FILTER_VERIFIERS_DNS_ENABLED", "false")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(svc *service.Service, f ports.Filter) {
		assert.NotNil(t, svc.Metrics())
		assert.IsType(t, &filter.HTTPFilter{}, f)
	})
	require.NoError(t, err)
}

func TestCLIFlagsInput(t *testing.T) {
	in, err := (&CLIFlags{URL: "https://example.com", Message: "ignored"}).Input(nil)
	require.NoError(t, err)
	assert.Equal(t, core.AnalysisInput{URL: "https://example.com"}, in)

	in, err = (&CLIFlags{InputFile: "-"}).Input(strings.NewReader("Act now: http://evil.tk"))
	require.NoError(t, err)
	assert.Equal(t, core.AnalysisInput{Message: "Act now: http://evil.tk"}, in)

	path := filepath.Join(t.TempDir(), "mail.txt")
	require.NoError(t, os.WriteFile(path, []byte("see https://example.com"), 0o600))
	in, err = (&CLIFlags{InputFile: path}).Input(nil)
	require.NoError(t, err)
	assert.Equal(t, "see https://example.com", in.Message)

	_, err = (&CLIFlags{}).Input(nil)
	assert.Error(t, err)
}
