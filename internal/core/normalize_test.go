package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/phish-filter/internal/core"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		message string
		want    string
		found   bool
	}{
		{"Visit https://example.com/path now", "https://example.com/path", true},
		{"Go to http://a.example.org/x?y=1.", "http://a.example.org/x?y=1", true},
		{"(see HTTPS://Example.com/login)", "HTTPS://Example.com/login", true},
		{"first http://one.test then http://two.test", "http://one.test", true},
		{"no links, only www.example.com", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := core.ExtractURL(tt.message)
		assert.Equal(t, tt.found, ok, tt.message)
		assert.Equal(t, tt.want, got, tt.message)
	}
}

func TestParseURL(t *testing.T) {
	parsed, ok := core.ParseURL("HTTP://Login.Example.COM/Path?q=1")
	require.True(t, ok)
	assert.Equal(t, "http", parsed.Scheme)
	assert.Equal(t, "login.example.com", parsed.Hostname)
	assert.Equal(t, "/Path", parsed.Path)
	assert.Equal(t, "q=1", parsed.Query)
	assert.Equal(t, "HTTP://Login.Example.COM/Path?q=1", parsed.Raw)

	for _, raw := range []string{"", "not a url", "example.com/path", "http://", "::::"} {
		_, ok := core.ParseURL(raw)
		assert.False(t, ok, raw)
	}
}

func TestNormalize(t *testing.T) {
	parsed, terminal := core.Normalize(core.AnalysisInput{URL: "https://example.com", Message: "ignored http://other.test"})
	require.Nil(t, terminal)
	assert.Equal(t, "example.com", parsed.Hostname)

	parsed, terminal = core.Normalize(core.AnalysisInput{Message: "click http://other.test/a"})
	require.Nil(t, terminal)
	assert.Equal(t, "other.test", parsed.Hostname)

	_, terminal = core.Normalize(core.AnalysisInput{Message: "hello"})
	assert.Equal(t, core.NoURLResult(), terminal)

	_, terminal = core.Normalize(core.AnalysisInput{})
	assert.Equal(t, core.NoURLResult(), terminal)

	_, terminal = core.Normalize(core.AnalysisInput{URL: "nonsense"})
	assert.Equal(t, core.InvalidURLResult(), terminal)
}

func TestRegisteredDomain(t *testing.T) {
	assert.Equal(t, "example.co.uk", core.RegisteredDomain("www.shop.example.co.uk"))
	assert.Equal(t, "example.com", core.RegisteredDomain("Example.COM."))
	assert.Equal(t, "xn--pypal-4ve.com", core.RegisteredDomain("login.pаypal.com"))
	assert.Equal(t, "10.0.0.1", core.RegisteredDomain("10.0.0.1"))
}
