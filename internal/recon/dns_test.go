package recon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startDNSServer serves the given zone on a loopback UDP port. Names missing
// from zone get NXDOMAIN; names mapped to nil get an empty NOERROR answer.
func startDNSServer(t *testing.T, zone map[string][]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		records, ok := zone[strings.ToLower(q.Name)]
		if !ok {
			m.Rcode = dns.RcodeNameError
		}
		for _, text := range records {
			rr, err := dns.NewRR(text)
			if err != nil {
				t.Errorf("bad test record %q: %v", text, err)
				continue
			}
			m.Answer = append(m.Answer, rr)
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go srv.ActivateAndServe()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dns server did not start")
	}
	t.Cleanup(func() { srv.Shutdown() })

	return pc.LocalAddr().String()
}

func testZone() map[string][]string {
	return map[string][]string{
		"contoso.blob.core.windows.net.": {
			"contoso.blob.core.windows.net. 60 IN A 20.60.1.1",
		},
		"contosodev.blob.core.windows.net.": {
			"contosodev.blob.core.windows.net. 60 IN CNAME blob.ams.store.core.windows.net.",
			"blob.ams.store.core.windows.net. 60 IN A 20.60.2.2",
		},
		"contosoprod.blob.core.windows.net.": nil,
	}
}

func TestDNSLookup_ARecord(t *testing.T) {
	addr := startDNSServer(t, testZone())
	lookup, err := NewDNSLookup([]string{addr}, 2*time.Second)
	if err != nil {
		t.Fatalf("NewDNSLookup: %v", err)
	}

	ip, err := lookup.LookupA(context.Background(), "contoso.blob.core.windows.net")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip != "20.60.1.1" {
		t.Errorf("ip = %q, want 20.60.1.1", ip)
	}
}

func TestDNSLookup_FollowsCNAMEAnswer(t *testing.T) {
	addr := startDNSServer(t, testZone())
	lookup, _ := NewDNSLookup([]string{addr}, 2*time.Second)

	ip, err := lookup.LookupA(context.Background(), "contosodev.blob.core.windows.net")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip != "20.60.2.2" {
		t.Errorf("ip = %q, want 20.60.2.2", ip)
	}
}

func TestDNSLookup_NXDOMAIN(t *testing.T) {
	addr := startDNSServer(t, testZone())
	lookup, _ := NewDNSLookup([]string{addr}, 2*time.Second)

	_, err := lookup.LookupA(context.Background(), "nope.blob.core.windows.net")
	var rcodeErr *RcodeError
	if !errors.As(err, &rcodeErr) {
		t.Fatalf("expected RcodeError, got %v", err)
	}
	if got := classifyDNSError(err); got != "NXDOMAIN" {
		t.Errorf("class = %q, want NXDOMAIN", got)
	}
}

func TestDNSLookup_NoAddress(t *testing.T) {
	addr := startDNSServer(t, testZone())
	lookup, _ := NewDNSLookup([]string{addr}, 2*time.Second)

	_, err := lookup.LookupA(context.Background(), "contosoprod.blob.core.windows.net")
	if !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
}

func TestNewDNSLookup_Servers(t *testing.T) {
	lookup, err := NewDNSLookup([]string{"1.1.1.1", " 8.8.8.8:5353 ", "", "[2606:4700::1111]"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1.1.1.1:53", "8.8.8.8:5353", "[2606:4700::1111]:53"}
	if len(lookup.servers) != len(want) {
		t.Fatalf("servers = %v, want %v", lookup.servers, want)
	}
	for i := range want {
		if lookup.servers[i] != want[i] {
			t.Errorf("servers[%d] = %q, want %q", i, lookup.servers[i], want[i])
		}
	}
	if lookup.timeout != defaultDNSTimeout {
		t.Errorf("timeout = %v, want %v", lookup.timeout, defaultDNSTimeout)
	}

	if _, err := NewDNSLookup([]string{" "}, time.Second); err == nil {
		t.Error("expected error for blank server list")
	}
}

func TestResolver_ReturnsLiveNamesInOrder(t *testing.T) {
	addr := startDNSServer(t, testZone())
	lookup, _ := NewDNSLookup([]string{addr}, 2*time.Second)
	r := &Resolver{Lookup: lookup}

	names := []string{
		"contoso.blob.core.windows.net",
		"nope1.blob.core.windows.net",
		"contosoprod.blob.core.windows.net",
		"nope2.blob.core.windows.net",
		"contosodev.blob.core.windows.net",
	}

	var ticks atomic.Int64
	got, err := r.Resolve(context.Background(), names, 3, func() { ticks.Add(1) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"contoso.blob.core.windows.net", "contosodev.blob.core.windows.net"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if ticks.Load() != int64(len(names)) {
		t.Errorf("ticks = %d, want %d", ticks.Load(), len(names))
	}
}

func TestResolver_SameNamesForAnyWorkerCount(t *testing.T) {
	addr := startDNSServer(t, testZone())
	lookup, _ := NewDNSLookup([]string{addr}, 2*time.Second)
	r := &Resolver{Lookup: lookup}

	names := []string{
		"nope0.blob.core.windows.net",
		"contosodev.blob.core.windows.net",
		"contosoprod.blob.core.windows.net",
		"nope1.blob.core.windows.net",
		"contoso.blob.core.windows.net",
		"nope2.blob.core.windows.net",
		"contosodev.blob.core.windows.net",
	}
	want := []string{
		"contosodev.blob.core.windows.net",
		"contoso.blob.core.windows.net",
		"contosodev.blob.core.windows.net",
	}

	for _, workers := range []int{1, 3, len(names) + 2} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var ticks atomic.Int64
			got, err := r.Resolve(context.Background(), names, workers, func() { ticks.Add(1) })
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
				}
			}
			if ticks.Load() != int64(len(names)) {
				t.Errorf("ticks = %d, want %d", ticks.Load(), len(names))
			}
		})
	}
}

// silentDNSServer returns a UDP address that accepts queries and never answers.
func silentDNSServer(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { pc.Close() })
	return pc.LocalAddr().String()
}

func TestDNSLookup_Timeout(t *testing.T) {
	lookup, _ := NewDNSLookup([]string{silentDNSServer(t)}, 200*time.Millisecond)

	start := time.Now()
	_, err := lookup.LookupA(context.Background(), "contoso.blob.core.windows.net")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if class := classifyDNSError(err); class != "TIMEOUT" {
		t.Errorf("class = %q, want TIMEOUT (err: %v)", class, err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("lookup took %s, want about 200ms", elapsed)
	}
}

func TestResolver_UnresponsiveServer(t *testing.T) {
	lookup, _ := NewDNSLookup([]string{silentDNSServer(t)}, 200*time.Millisecond)
	r := &Resolver{Lookup: lookup}

	names := []string{
		"contoso.blob.core.windows.net",
		"contosodev.blob.core.windows.net",
		"contosoprod.blob.core.windows.net",
		"contosotest.blob.core.windows.net",
	}

	var ticks atomic.Int64
	start := time.Now()
	got, err := r.Resolve(context.Background(), names, 2, func() { ticks.Add(1) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no live names", got)
	}
	if ticks.Load() != int64(len(names)) {
		t.Errorf("ticks = %d, want %d", ticks.Load(), len(names))
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("resolve took %s, want each query bounded by the timeout", elapsed)
	}
}

func TestResolver_MixedServersIsolateTimeouts(t *testing.T) {
	live := startDNSServer(t, testZone())
	lookup, _ := NewDNSLookup([]string{live, silentDNSServer(t)}, 200*time.Millisecond)
	r := &Resolver{Lookup: lookup}

	// Servers rotate per query, so with one worker every second query
	// goes to the silent server.
	names := []string{
		"contoso.blob.core.windows.net",
		"contoso.blob.core.windows.net",
		"contoso.blob.core.windows.net",
		"contoso.blob.core.windows.net",
	}
	got, _ := r.Resolve(context.Background(), names, 1, nil)
	if len(got) != 2 {
		t.Errorf("got %v, want 2 answers from the live server", got)
	}
}

func TestResolver_NoLookup(t *testing.T) {
	r := &Resolver{}
	if _, err := r.Resolve(context.Background(), []string{"a"}, 1, nil); err == nil {
		t.Fatal("expected error without lookup backend")
	}
}

func TestClassifyDNSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"nxdomain rcode", &RcodeError{Host: "a", Rcode: dns.RcodeNameError}, "NXDOMAIN"},
		{"servfail rcode", &RcodeError{Host: "a", Rcode: dns.RcodeServerFailure}, "SERVFAIL"},
		{"no address", ErrNoAddress, "NOADDR"},
		{"deadline", context.DeadlineExceeded, "TIMEOUT"},
		{"net not found", &net.DNSError{IsNotFound: true}, "NXDOMAIN"},
		{"net timeout", &net.DNSError{IsTimeout: true}, "TIMEOUT"},
		{"net misbehaving", &net.DNSError{Err: "server misbehaving"}, "SERVFAIL"},
		{"other", errors.New("boom"), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDNSError(tt.err); got != tt.want {
				t.Errorf("classifyDNSError() = %q, want %q", got, tt.want)
			}
		})
	}
}
