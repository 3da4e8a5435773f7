package core_test

import (
	"context"
	"time"

	"github.com/mikey/phish-filter/internal/core"
)

type fakeResolver struct {
	addrs []string
	err   error
}

func (r fakeResolver) LookupHost(_ context.Context, _ string) ([]string, error) {
	return r.addrs, r.err
}

type fakeRedirector struct {
	final string
	err   error
}

func (r fakeRedirector) Resolve(_ context.Context, rawURL string, _ int) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.final == "" {
		return rawURL, nil
	}
	return r.final, nil
}

type fakeProvider struct {
	name    string
	signal  core.Signal
	verdict core.ThreatVerdict
	err     error
	delay   time.Duration
}

func (p fakeProvider) Check(ctx context.Context, _ string) (core.ThreatVerdict, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return core.ThreatVerdict{}, ctx.Err()
		}
	}
	return p.verdict, p.err
}

func (p fakeProvider) Name() string        { return p.name }
func (p fakeProvider) Signal() core.Signal { return p.signal }

type fixedModel struct {
	p   float64
	err error
}

func (m fixedModel) Predict(_ context.Context, _ core.FeatureVector) (float64, error) {
	return m.p, m.err
}

func (m fixedModel) Name() string { return "fixed" }

type panickingVerifier struct{}

func (panickingVerifier) Name() string { return "panics" }

func (panickingVerifier) Verify(context.Context, *core.ParsedURL, *core.Settings) core.VerifierOutcome {
	panic("boom")
}

func resolving() fakeResolver {
	return fakeResolver{addrs: []string{"93.184.216.34"}}
}

func quietVerifiers() []core.Verifier {
	return []core.Verifier{
		core.NewDNSVerifier(resolving()),
		core.NewRedirectVerifier(fakeRedirector{}),
	}
}
