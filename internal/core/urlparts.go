package core

import (
	"net"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// hostParts splits a hostname into the pieces the heuristics look at
type hostParts struct {
	ascii      string
	registered string
	subdomain  string
	tld        string
}

func splitHost(hostname string) hostParts {
	host := strings.TrimSuffix(strings.ToLower(hostname), ".")
	if isIPLiteral(host) {
		return hostParts{ascii: host, registered: host}
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		ascii = host
	}

	registered, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		// IP literals and bare public suffixes have no registrable part
		registered = ascii
	}

	subdomain := ""
	if ascii != registered {
		subdomain = strings.TrimSuffix(ascii, "."+registered)
	}

	tld := ascii
	if i := strings.LastIndex(ascii, "."); i >= 0 {
		tld = ascii[i+1:]
	}

	return hostParts{
		ascii:      ascii,
		registered: registered,
		subdomain:  subdomain,
		tld:        tld,
	}
}

// RegisteredDomain returns the registrable domain (eTLD+1) of a hostname in ASCII form
func RegisteredDomain(hostname string) string {
	return splitHost(hostname).registered
}

func labelCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, ".") + 1
}

func isIPLiteral(host string) bool {
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}
