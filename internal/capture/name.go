package capture

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ErrMalformedName is returned for names outside the tcpflow grammar.
var ErrMalformedName = errors.New("capture: malformed flow file name")

// tcpflow names a one-directional stream SSS.SSS.SSS.SSS.PPPPP-DDD.DDD.DDD.DDD.PPPPP.
var namePattern = regexp.MustCompile(
	`^(\d{3})\.(\d{3})\.(\d{3})\.(\d{3})\.(\d{5})-(\d{3})\.(\d{3})\.(\d{3})\.(\d{3})\.(\d{5})$`)

// Endpoint is one side of a captured TCP stream as encoded in a file name.
// Octets and port keep the full range of the fixed-width digits, so a name
// like 300.000.000.001.99999 still parses; such endpoints are not Routable.
type Endpoint struct {
	Addr [4]uint16
	Port uint32
}

// ParseEndpoint parses "a.b.c.d[:port]". The host must be an IPv4 literal.
func ParseEndpoint(hostport string, defaultPort int) (Endpoint, error) {
	host, portStr := hostport, ""
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		host, portStr = h, p
	}

	ip := net.ParseIP(host).To4()
	if ip == nil {
		return Endpoint{}, fmt.Errorf("invalid IPv4 address %q", host)
	}

	port := defaultPort
	if portStr != "" {
		n, err := strconv.Atoi(portStr)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid port in %q: %w", hostport, err)
		}
		port = n
	}
	if port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	var ep Endpoint
	for i, b := range ip {
		ep.Addr[i] = uint16(b)
	}
	ep.Port = uint32(port)
	return ep, nil
}

// Token renders the fixed-width form used inside file names.
func (e Endpoint) Token() string {
	return fmt.Sprintf("%03d.%03d.%03d.%03d.%05d", e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3], e.Port)
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3], e.Port)
}

// Routable reports whether the endpoint is a real IPv4 address and TCP port.
func (e Endpoint) Routable() bool {
	for _, o := range e.Addr {
		if o > 255 {
			return false
		}
	}
	return e.Port <= 65535
}

// IP returns the address, or nil when the endpoint is not Routable.
func (e Endpoint) IP() net.IP {
	if !e.Routable() {
		return nil
	}
	return net.IPv4(byte(e.Addr[0]), byte(e.Addr[1]), byte(e.Addr[2]), byte(e.Addr[3])).To4()
}

// Name is a parsed capture file name: one direction of one TCP connection.
type Name struct {
	Src Endpoint
	Dst Endpoint
}

// ParseName parses a tcpflow file name. Anything that does not match the
// fixed-width grammar exactly returns ErrMalformedName.
func ParseName(s string) (Name, error) {
	m := namePattern.FindStringSubmatch(s)
	if m == nil {
		return Name{}, fmt.Errorf("%w: %q", ErrMalformedName, s)
	}

	var n Name
	for i := 0; i < 4; i++ {
		n.Src.Addr[i] = uint16(atoi(m[1+i]))
		n.Dst.Addr[i] = uint16(atoi(m[6+i]))
	}
	n.Src.Port = uint32(atoi(m[5]))
	n.Dst.Port = uint32(atoi(m[10]))
	return n, nil
}

// IsName reports whether s matches the capture file name grammar.
func IsName(s string) bool {
	return namePattern.MatchString(s)
}

// atoi is only called on digit runs already validated by namePattern.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (n Name) String() string {
	return n.Src.Token() + "-" + n.Dst.Token()
}

// Peer is the name of the opposite direction of the same connection.
func (n Name) Peer() Name {
	return Name{Src: n.Dst, Dst: n.Src}
}

// Involves reports whether either side of the stream is ep.
func (n Name) Involves(ep Endpoint) bool {
	return n.Src == ep || n.Dst == ep
}

// Flows returns the network and transport flows of this direction.
func (n Name) Flows() (network, transport gopacket.Flow, err error) {
	if !n.Src.Routable() || !n.Dst.Routable() {
		return network, transport, fmt.Errorf("capture: %s has no routable endpoints", n)
	}
	network, err = gopacket.FlowFromEndpoints(layers.NewIPEndpoint(n.Src.IP()), layers.NewIPEndpoint(n.Dst.IP()))
	if err != nil {
		return network, transport, err
	}
	transport, err = gopacket.FlowFromEndpoints(
		layers.NewTCPPortEndpoint(layers.TCPPort(n.Src.Port)),
		layers.NewTCPPortEndpoint(layers.TCPPort(n.Dst.Port)))
	return network, transport, err
}

// ConnKey identifies the connection regardless of direction: a name and its
// Peer share the same key. Zero when the endpoints are not routable.
func (n Name) ConnKey() uint64 {
	network, transport, err := n.Flows()
	if err != nil {
		return 0
	}
	return network.FastHash()*31 + transport.FastHash()
}

// Describe renders "src->dst" for logs.
func (n Name) Describe() string {
	return n.Src.String() + "->" + n.Dst.String()
}
