package network

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
)

// DNSResolver resolves hostnames with the system resolver
type DNSResolver struct {
	resolver *net.Resolver
	logger   *zap.Logger
}

// NewDNSResolver creates a resolver. A nil net.Resolver means net.DefaultResolver.
func NewDNSResolver(resolver *net.Resolver, logger *zap.Logger) *DNSResolver {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSResolver{
		resolver: resolver,
		logger:   logger,
	}
}

// LookupHost returns the addresses of host. IP literals resolve to themselves.
func (r *DNSResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}

	addrs, err := r.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", host, err)
	}

	r.logger.Debug("Resolved host",
		zap.String("host", host),
		zap.Strings("addresses", addrs))
	return addrs, nil
}
