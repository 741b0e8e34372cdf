// Package capture parses tcpflow capture file names.
package capture

import internalcapture "github.com/SmitUplenchwar2687/httpcopy/internal/capture"

// Endpoint is one side of a captured TCP stream.
type Endpoint = internalcapture.Endpoint

// Name is a parsed capture file name.
type Name = internalcapture.Name

// ErrMalformedName is returned for names outside the tcpflow grammar.
var ErrMalformedName = internalcapture.ErrMalformedName

// ParseName parses a tcpflow file name.
func ParseName(s string) (Name, error) {
	return internalcapture.ParseName(s)
}

// ParseEndpoint parses "a.b.c.d[:port]".
func ParseEndpoint(hostport string, defaultPort int) (Endpoint, error) {
	return internalcapture.ParseEndpoint(hostport, defaultPort)
}
