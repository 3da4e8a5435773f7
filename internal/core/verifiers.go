package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sourcegraph/conc/iter"
)

// OutcomeKind describes how a verifier settled
type OutcomeKind int

const (
	// OutcomeClean means the check ran and found nothing
	OutcomeClean OutcomeKind = iota
	// OutcomeContributed means the check produced a contribution
	OutcomeContributed
	// OutcomeAbsorbed means the check failed and the failure was swallowed
	OutcomeAbsorbed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeClean:
		return "clean"
	case OutcomeContributed:
		return "contributed"
	case OutcomeAbsorbed:
		return "absorbed"
	default:
		return "unknown"
	}
}

// VerifierOutcome is the explicit result of one asynchronous verifier.
// Err is informational only; it never reaches the caller of Analyze.
type VerifierOutcome struct {
	Verifier     string
	Kind         OutcomeKind
	Contribution *SignalContribution
	Err          error
}

// Verifier is an independent network-backed check over a parsed URL
type Verifier interface {
	Name() string
	Verify(ctx context.Context, parsed *ParsedURL, settings *Settings) VerifierOutcome
}

func clean(name string) VerifierOutcome {
	return VerifierOutcome{Verifier: name, Kind: OutcomeClean}
}

func absorbed(name string, err error) VerifierOutcome {
	return VerifierOutcome{Verifier: name, Kind: OutcomeAbsorbed, Err: err}
}

func contributed(name string, c SignalContribution, err error) VerifierOutcome {
	return VerifierOutcome{Verifier: name, Kind: OutcomeContributed, Contribution: &c, Err: err}
}

// DNSVerifier penalizes hosts that do not resolve
type DNSVerifier struct {
	resolver Resolver
}

// NewDNSVerifier creates a DNS resolution verifier
func NewDNSVerifier(resolver Resolver) *DNSVerifier {
	return &DNSVerifier{resolver: resolver}
}

func (v *DNSVerifier) Name() string { return "dns" }

// Verify resolves the hostname once within the configured timeout
func (v *DNSVerifier) Verify(ctx context.Context, parsed *ParsedURL, settings *Settings) VerifierOutcome {
	ctx, cancel := context.WithTimeout(ctx, settings.VerifierTimeout)
	defer cancel()

	host := splitHost(parsed.Hostname).ascii
	addrs, err := v.resolver.LookupHost(ctx, strings.Trim(host, "[]"))
	if err == nil && len(addrs) > 0 {
		return clean(v.Name())
	}
	if err == nil {
		err = errors.New("no addresses returned")
	}

	return contributed(v.Name(), SignalContribution{
		Signal:       SignalNoDNS,
		WeightDelta:  settings.Weight(SignalNoDNS),
		Reason:       "Domain does not resolve (no DNS records)",
		FeatureValue: feature(1),
	}, err)
}

// RedirectVerifier flags URLs that land somewhere other than where they point
type RedirectVerifier struct {
	redirector Redirector
}

// NewRedirectVerifier creates a redirect inspection verifier
func NewRedirectVerifier(redirector Redirector) *RedirectVerifier {
	return &RedirectVerifier{redirector: redirector}
}

func (v *RedirectVerifier) Name() string { return "redirect" }

// Verify follows the URL and compares the final destination with the original
func (v *RedirectVerifier) Verify(ctx context.Context, parsed *ParsedURL, settings *Settings) VerifierOutcome {
	ctx, cancel := context.WithTimeout(ctx, settings.VerifierTimeout)
	defer cancel()

	final, err := v.redirector.Resolve(ctx, parsed.Raw, settings.MaxRedirects)
	if err != nil {
		return absorbed(v.Name(), err)
	}
	if final == "" || sameDestination(parsed.Raw, final) {
		return clean(v.Name())
	}

	return contributed(v.Name(), SignalContribution{
		Signal:       SignalRedirect,
		WeightDelta:  settings.Weight(SignalRedirect),
		Reason:       fmt.Sprintf("URL redirects to a different destination: %s", final),
		FeatureValue: feature(1),
	}, nil)
}

// sameDestination compares two URLs ignoring case of scheme and host and a trailing slash
func sameDestination(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) &&
		strings.EqualFold(ua.Host, ub.Host) &&
		strings.TrimSuffix(ua.Path, "/") == strings.TrimSuffix(ub.Path, "/") &&
		ua.RawQuery == ub.RawQuery
}

// ThreatIntelVerifier asks a single threat-intel provider about the URL
type ThreatIntelVerifier struct {
	provider ThreatIntelProvider
}

// NewThreatIntelVerifier wraps a provider as a verifier
func NewThreatIntelVerifier(provider ThreatIntelProvider) *ThreatIntelVerifier {
	return &ThreatIntelVerifier{provider: provider}
}

func (v *ThreatIntelVerifier) Name() string { return v.provider.Name() }

// Verify checks the raw URL with the provider; provider failures are absorbed
func (v *ThreatIntelVerifier) Verify(ctx context.Context, parsed *ParsedURL, settings *Settings) VerifierOutcome {
	ctx, cancel := context.WithTimeout(ctx, settings.VerifierTimeout)
	defer cancel()

	verdict, err := v.provider.Check(ctx, parsed.Raw)
	if err != nil {
		return absorbed(v.Name(), err)
	}
	if !verdict.Flagged {
		return clean(v.Name())
	}

	reason := fmt.Sprintf("Flagged by %s", v.provider.Name())
	if verdict.Detail != "" {
		reason += ": " + verdict.Detail
	}
	return contributed(v.Name(), SignalContribution{
		Signal:       v.provider.Signal(),
		WeightDelta:  settings.Weight(v.provider.Signal()),
		Reason:       reason,
		FeatureValue: feature(1),
	}, nil)
}

// RunVerifiers launches every verifier at once and waits for all of them to settle.
// Outcomes are returned in launch order; a panicking verifier is absorbed.
func RunVerifiers(ctx context.Context, verifiers []Verifier, parsed *ParsedURL, settings *Settings) []VerifierOutcome {
	if len(verifiers) == 0 {
		return nil
	}

	mapper := iter.Mapper[Verifier, VerifierOutcome]{MaxGoroutines: len(verifiers)}
	return mapper.Map(verifiers, func(v *Verifier) (outcome VerifierOutcome) {
		verifier := *v
		defer func() {
			if r := recover(); r != nil {
				outcome = absorbed(verifier.Name(), fmt.Errorf("verifier panicked: %v", r))
			}
		}()
		return verifier.Verify(ctx, parsed, settings)
	})
}
