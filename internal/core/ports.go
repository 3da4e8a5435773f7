package core

import (
	"context"
)

// Model maps a feature vector to a phishing probability in [0,1]
type Model interface {
	// Predict returns the probability that the features describe a phishing URL
	Predict(ctx context.Context, features FeatureVector) (float64, error)

	// Name identifies the model in logs
	Name() string
}

// Resolver performs single-shot hostname lookups
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Redirector follows a URL through at most maxHops redirects and reports where it landed
type Redirector interface {
	Resolve(ctx context.Context, rawURL string, maxHops int) (string, error)
}

// ThreatIntelProvider checks a URL against a third-party threat database
type ThreatIntelProvider interface {
	// Check reports whether the provider considers the URL malicious
	Check(ctx context.Context, rawURL string) (ThreatVerdict, error)

	// Name identifies the provider in reasons and logs
	Name() string

	// Signal keys the provider's weight
	Signal() Signal
}

// Similarity scores how alike two strings are. Implementations must return 1 for equal
// strings and the same value regardless of argument order.
type Similarity interface {
	Compare(a, b string) float64
}
