package factory

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/network"
	"github.com/mikey/phish-filter/internal/adapters/threatintel"
	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
)

const (
	providerSafeBrowsing = "google_safe_browsing"
	providerVirusTotal   = "virustotal"
	providerPhishTank    = "phishtank"
)

// VerifierFactory creates the network-backed verifiers
type VerifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewVerifierFactory creates a new verifier factory
func NewVerifierFactory(cfg *config.Config, logger *zap.Logger) *VerifierFactory {
	return &VerifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVerifiers builds the enabled verifiers in launch order: DNS, redirect, then the
// threat intel providers.
func (f *VerifierFactory) CreateVerifiers() ([]core.Verifier, error) {
	verifiersCfg := f.cfg.GetVerifiers()
	client := network.NewHTTPClient(verifiersCfg.Timeout)

	var verifiers []core.Verifier
	if verifiersCfg.DNSEnabled {
		verifiers = append(verifiers, core.NewDNSVerifier(network.NewDNSResolver(nil, f.logger)))
	}
	if verifiersCfg.RedirectEnabled {
		redirector := network.NewHTTPRedirector(client, verifiersCfg.UserAgent, f.logger)
		verifiers = append(verifiers, core.NewRedirectVerifier(redirector))
	}

	providers, err := f.CreateProviders(client)
	if err != nil {
		return nil, err
	}
	for _, p := range providers {
		verifiers = append(verifiers, core.NewThreatIntelVerifier(p))
	}

	names := make([]string, len(verifiers))
	for i, v := range verifiers {
		names[i] = v.Name()
	}
	f.logger.Info("Enabled verifiers", zap.Strings("verifiers", names))

	return verifiers, nil
}

// CreateProviders builds the threat intel providers. With no explicit provider list every
// provider whose credential is configured is enabled. Listed providers without a
// credential are skipped with a warning.
func (f *VerifierFactory) CreateProviders(client *http.Client) ([]core.ThreatIntelProvider, error) {
	tiCfg := f.cfg.GetThreatIntel()

	names := tiCfg.Providers
	explicit := len(names) > 0
	if !explicit {
		if tiCfg.SafeBrowsingAPIKey != "" {
			names = append(names, providerSafeBrowsing)
		}
		if tiCfg.VirusTotalAPIKey != "" {
			names = append(names, providerVirusTotal)
		}
		if tiCfg.PhishTankAppKey != "" {
			names = append(names, providerPhishTank)
		}
	}

	var providers []core.ThreatIntelProvider
	for _, name := range names {
		var (
			p   core.ThreatIntelProvider
			err error
		)
		switch strings.ToLower(strings.TrimSpace(name)) {
		case providerSafeBrowsing:
			p, err = threatintel.NewSafeBrowsing(tiCfg.SafeBrowsingAPIKey, tiCfg.SafeBrowsingBaseURL,
				tiCfg.SafeBrowsingClientID, client, f.logger)
		case providerVirusTotal:
			p, err = threatintel.NewVirusTotal(tiCfg.VirusTotalAPIKey, tiCfg.VirusTotalBaseURL, client, f.logger)
		case providerPhishTank:
			p, err = threatintel.NewPhishTank(tiCfg.PhishTankAppKey, tiCfg.PhishTankBaseURL, client, f.logger)
		default:
			return nil, fmt.Errorf("unsupported threat intel provider: %s", name)
		}

		if errors.Is(err, threatintel.ErrNoCredential) {
			f.logger.Warn("Skipping threat intel provider without credentials", zap.String("provider", name))
			continue
		}
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	return providers, nil
}
