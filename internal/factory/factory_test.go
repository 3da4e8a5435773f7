package factory

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/filter"
	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/service"
)

func newConfig(values map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestModelFactory(t *testing.T) {
	logger := zap.NewNop()

	m, err := NewModelFactory(newConfig(nil), logger).CreateModel()
	require.NoError(t, err)
	assert.Equal(t, "fallback", m.Name())

	_, err = NewModelFactory(newConfig(map[string]interface{}{"model.provider": "crystal-ball"}), logger).CreateModel()
	assert.ErrorContains(t, err, "unsupported model provider")

	_, err = NewModelFactory(newConfig(map[string]interface{}{"model.provider": "logistic"}), logger).CreateModel()
	assert.ErrorContains(t, err, "logistic_path")

	_, err = NewModelFactory(newConfig(map[string]interface{}{"model.provider": "openai"}), logger).CreateModel()
	assert.ErrorContains(t, err, "API key")
}

func TestModelFactoryLogistic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bias: -1\nweights:\n  non_https: 2\n"), 0o600))

	m, err := NewModelFactory(newConfig(map[string]interface{}{
		"model.provider":      "logistic",
		"model.logistic_path": path,
	}), zap.NewNop()).CreateModel()
	require.NoError(t, err)
	assert.Equal(t, "logistic", m.Name())
}

func TestVerifierFactory(t *testing.T) {
	verifiers, err := NewVerifierFactory(newConfig(nil), zap.NewNop()).CreateVerifiers()
	require.NoError(t, err)
	require.Len(t, verifiers, 2)
	assert.Equal(t, "dns", verifiers[0].Name())
	assert.Equal(t, "redirect", verifiers[1].Name())

	verifiers, err = NewVerifierFactory(newConfig(map[string]interface{}{
		"verifiers.dns.enabled":                     false,
		"verifiers.redirect.enabled":                false,
		"threat_intel.virustotal.api_key":           "vt-key",
		"threat_intel.google_safe_browsing.api_key": "gsb-key",
	}), zap.NewNop()).CreateVerifiers()
	require.NoError(t, err)
	require.Len(t, verifiers, 2)
	assert.Equal(t, "Google Safe Browsing", verifiers[0].Name())
	assert.Equal(t, "VirusTotal", verifiers[1].Name())
}

func TestCreateProvidersExplicitList(t *testing.T) {
	f := NewVerifierFactory(newConfig(map[string]interface{}{
		"threat_intel.providers":         []string{"virustotal", "phishtank"},
		"threat_intel.phishtank.app_key": "pt-key",
	}), zap.NewNop())

	providers, err := f.CreateProviders(http.DefaultClient)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, core.SignalPhishTank, providers[0].Signal())

	f = NewVerifierFactory(newConfig(map[string]interface{}{
		"threat_intel.providers": []string{"virustotal", "phishtank"},
	}), zap.NewNop())
	providers, err = f.CreateProviders(http.DefaultClient)
	require.NoError(t, err)
	assert.Empty(t, providers)

	f = NewVerifierFactory(newConfig(map[string]interface{}{
		"threat_intel.providers": []string{"urlhaus"},
	}), zap.NewNop())
	_, err = f.CreateProviders(http.DefaultClient)
	assert.ErrorContains(t, err, "unsupported threat intel provider")
}

func TestCacheFactory(t *testing.T) {
	repo, err := NewCacheFactory(newConfig(nil), zap.NewNop()).CreateCacheRepository()
	require.NoError(t, err)
	assert.Nil(t, repo)

	repo, err = NewCacheFactory(newConfig(map[string]interface{}{
		"cache.enabled":     true,
		"cache.type":        "sqlite",
		"cache.sqlite_path": filepath.Join(t.TempDir(), "nested", "cache.db"),
	}), zap.NewNop()).CreateCacheRepository()
	require.NoError(t, err)
	require.NotNil(t, repo)
	if stopper, ok := repo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	_, err = NewCacheFactory(newConfig(map[string]interface{}{
		"cache.enabled": true,
		"cache.type":    "redis",
	}), zap.NewNop()).CreateCacheRepository()
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestFilterFactory(t *testing.T) {
	logger := zap.NewNop()
	detector := core.NewDetector(core.NewHeuristics(nil, logger), nil, nil, nil, logger)
	svc := service.New(detector, nil, nil, logger, false, 0)

	f, err := NewFilterFactory(newConfig(map[string]interface{}{"server.gin_mode": "test"}), logger, svc).CreateFilter()
	require.NoError(t, err)
	assert.IsType(t, &filter.HTTPFilter{}, f)

	f, err = NewFilterFactory(newConfig(map[string]interface{}{"server.filter_type": "smtp"}), logger, svc).CreateFilter()
	require.NoError(t, err)
	assert.IsType(t, &filter.PostfixFilter{}, f)

	_, err = NewFilterFactory(newConfig(map[string]interface{}{"server.filter_type": "milter"}), logger, svc).CreateFilter()
	assert.Error(t, err)
}
