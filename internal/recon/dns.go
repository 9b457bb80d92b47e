package recon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
)

const (
	defaultDNSTimeout = 5 * time.Second
	resolvConfPath    = "/etc/resolv.conf"
)

// ErrNoAddress is returned when a name exists but has no A record.
var ErrNoAddress = errors.New("no address records")

// RcodeError reports a DNS response with a non-success rcode.
type RcodeError struct {
	Host  string
	Rcode int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Host, dns.RcodeToString[e.Rcode])
}

// Lookup resolves a hostname to its first IPv4 address.
type Lookup interface {
	LookupA(ctx context.Context, host string) (string, error)
}

// DNSLookup sends A queries directly to a list of DNS servers, rotating
// through them per query.
type DNSLookup struct {
	servers []string
	timeout time.Duration
	client  *dns.Client
	next    atomic.Uint64
}

// NewDNSLookup returns a DNSLookup for servers given as host or host:port.
func NewDNSLookup(servers []string, timeout time.Duration) (*DNSLookup, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no DNS servers configured")
	}
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}

	normalized := make([]string, 0, len(servers))
	for _, s := range servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(strings.Trim(s, "[]"), "53")
		}
		normalized = append(normalized, s)
	}
	if len(normalized) == 0 {
		return nil, fmt.Errorf("no DNS servers configured")
	}

	return &DNSLookup{
		servers: normalized,
		timeout: timeout,
		client:  &dns.Client{Net: "udp", Timeout: timeout},
	}, nil
}

// SystemServers returns the nameservers listed in /etc/resolv.conf.
func SystemServers() ([]string, error) {
	conf, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolvConfPath, err)
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return servers, nil
}

// LookupA implements Lookup.
func (d *DNSLookup) LookupA(ctx context.Context, host string) (string, error) {
	server := d.servers[int((d.next.Add(1)-1)%uint64(len(d.servers)))]

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	in, _, err := d.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return "", fmt.Errorf("query %s via %s: %w", host, server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", &RcodeError{Host: host, Rcode: in.Rcode}
	}

	// CNAME chains come back ahead of the A records.
	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", ErrNoAddress
}

// SystemLookup resolves through the operating system resolver.
type SystemLookup struct {
	Resolver *net.Resolver
	Timeout  time.Duration
}

// LookupA implements Lookup.
func (s *SystemLookup) LookupA(ctx context.Context, host string) (string, error) {
	r := s.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", ErrNoAddress
	}
	return ips[0].String(), nil
}

// classifyDNSError returns a short failure class for logging.
func classifyDNSError(err error) string {
	if err == nil {
		return ""
	}

	var rcodeErr *RcodeError
	if errors.As(err, &rcodeErr) {
		if rcodeErr.Rcode == dns.RcodeNameError {
			return "NXDOMAIN"
		}
		return dns.RcodeToString[rcodeErr.Rcode]
	}
	if errors.Is(err, ErrNoAddress) {
		return "NOADDR"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return "NXDOMAIN"
		case dnsErr.IsTimeout:
			return "TIMEOUT"
		}
		return "SERVFAIL"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "TIMEOUT"
	}
	return "ERROR"
}
