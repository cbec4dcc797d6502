// Package netaddr finds the local address other devices on the network can
// use to reach the streaming server.
package netaddr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"

	"nssplayer/internal/domain/ports"
)

// Fallback is returned by Chain when no resolver produced an address.
const Fallback = "localhost"

// DefaultProbeAddr is a TEST-NET-1 address. Connecting a UDP socket to it
// selects a route without sending any packet.
const DefaultProbeAddr = "192.0.2.1:9"

var ErrNoAddress = errors.New("no suitable local address")

// Outbound reports the source address the OS would use to reach ProbeAddr.
type Outbound struct {
	ProbeAddr string
}

func (o Outbound) LocalAddress(ctx context.Context) (string, error) {
	probe := o.ProbeAddr
	if probe == "" {
		probe = DefaultProbeAddr
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", probe)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsLoopback() || addr.IP.IsUnspecified() {
		return "", ErrNoAddress
	}
	return addr.IP.String(), nil
}

// AddrLister returns the host's interface addresses. net.InterfaceAddrs
// satisfies it.
type AddrLister func() ([]net.Addr, error)

// Subnet picks the first non-loopback IPv4 interface address inside one of
// Prefixes. With no prefixes it accepts any private IPv4 address.
type Subnet struct {
	Prefixes []netip.Prefix
	List     AddrLister
}

func (s Subnet) LocalAddress(ctx context.Context) (string, error) {
	list := s.List
	if list == nil {
		list = net.InterfaceAddrs
	}
	addrs, err := list()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	for _, a := range addrs {
		ip, ok := ipv4Of(a)
		if !ok || ip.IsLoopback() {
			continue
		}
		if s.matches(ip) {
			return ip.String(), nil
		}
	}
	return "", ErrNoAddress
}

func (s Subnet) matches(ip netip.Addr) bool {
	if len(s.Prefixes) == 0 {
		return ip.IsPrivate()
	}
	for _, p := range s.Prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func ipv4Of(a net.Addr) (netip.Addr, bool) {
	var raw net.IP
	switch v := a.(type) {
	case *net.IPNet:
		raw = v.IP
	case *net.IPAddr:
		raw = v.IP
	default:
		return netip.Addr{}, false
	}
	ip, ok := netip.AddrFromSlice(raw)
	if !ok {
		return netip.Addr{}, false
	}
	ip = ip.Unmap()
	return ip, ip.Is4()
}

// Static always reports Host.
type Static struct {
	Host string
}

func (s Static) LocalAddress(context.Context) (string, error) {
	if strings.TrimSpace(s.Host) == "" {
		return "", ErrNoAddress
	}
	return strings.TrimSpace(s.Host), nil
}

// Chain tries each resolver in order and falls back to "localhost".
type Chain struct {
	resolvers []ports.AddressResolver
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, resolvers ...ports.AddressResolver) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{resolvers: resolvers, logger: logger}
}

// LocalAddress never fails.
func (c *Chain) LocalAddress(ctx context.Context) (string, error) {
	for _, r := range c.resolvers {
		addr, err := r.LocalAddress(ctx)
		if err == nil && addr != "" {
			return addr, nil
		}
		if err != nil {
			c.logger.Debug("address resolver skipped",
				slog.String("resolver", fmt.Sprintf("%T", r)),
				slog.String("error", err.Error()),
			)
		}
	}
	c.logger.Warn("no LAN address found, share URL will use localhost")
	return Fallback, nil
}

// ParsePrefixes parses a comma separated CIDR list. Bare addresses are
// treated as single-host prefixes.
func ParsePrefixes(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			ip, err := netip.ParseAddr(v)
			if err != nil {
				return nil, fmt.Errorf("invalid subnet %q: %w", v, err)
			}
			out = append(out, netip.PrefixFrom(ip, ip.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("invalid subnet %q: %w", v, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

// Options configures New.
type Options struct {
	Strategy  string
	Host      string
	Subnets   []netip.Prefix
	ProbeAddr string
	List      AddrLister
	Logger    *slog.Logger
}

// New builds the resolver chain for a strategy name: auto, outbound, subnet
// or static. auto tries a static host, then configured subnets, then the
// outbound route, then any private interface address.
func New(opts Options) (*Chain, error) {
	static := Static{Host: opts.Host}
	subnet := Subnet{Prefixes: opts.Subnets, List: opts.List}
	outbound := Outbound{ProbeAddr: opts.ProbeAddr}

	switch strings.ToLower(strings.TrimSpace(opts.Strategy)) {
	case "", "auto":
		chain := []ports.AddressResolver{}
		if static.Host != "" {
			chain = append(chain, static)
		}
		if len(subnet.Prefixes) > 0 {
			chain = append(chain, subnet)
		}
		chain = append(chain, outbound, Subnet{List: opts.List})
		return NewChain(opts.Logger, chain...), nil
	case "outbound":
		return NewChain(opts.Logger, outbound), nil
	case "subnet":
		return NewChain(opts.Logger, subnet), nil
	case "static":
		if static.Host == "" {
			return nil, errors.New("static address strategy requires SHARE_HOST")
		}
		return NewChain(opts.Logger, static), nil
	default:
		return nil, fmt.Errorf("unknown address strategy %q", opts.Strategy)
	}
}
