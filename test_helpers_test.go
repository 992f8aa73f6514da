package trustedproxies

import (
	"context"
	"net/http"
	"net/netip"
	"sync"
	"testing"
)

// trustedState is a comparable snapshot of a Trusted value for cmp diffs.
type trustedState struct {
	IP     string
	Host   string
	Port   int
	Scheme string
	By     string
	Source string
}

func trustedStateOf(trusted Trusted) trustedState {
	state := trustedState{
		Host:   trusted.Host(),
		Port:   trusted.Port(),
		Scheme: trusted.Scheme(),
		By:     trusted.By(),
		Source: trusted.Source(),
	}

	if trusted.IP().IsValid() {
		state.IP = trusted.IP().String()
	}

	return state
}

func mustNewResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()

	resolver, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return resolver
}

func mustParseCIDRs(t *testing.T, cidrs ...string) []netip.Prefix {
	t.Helper()

	prefixes, err := ParseCIDRs(cidrs...)
	if err != nil {
		t.Fatalf("ParseCIDRs() error = %v", err)
	}

	return prefixes
}

func newTestRequest(remoteAddr, host string) *http.Request {
	return &http.Request{
		RemoteAddr: remoteAddr,
		Host:       host,
		Header:     make(http.Header),
	}
}

type recordingMetrics struct {
	mu          sync.Mutex
	resolutions map[string]int
	events      map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		resolutions: make(map[string]int),
		events:      make(map[string]int),
	}
}

func (m *recordingMetrics) RecordResolution(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions[source]++
}

func (m *recordingMetrics) RecordSecurityEvent(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event]++
}

func (m *recordingMetrics) resolutionCount(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolutions[source]
}

func (m *recordingMetrics) eventCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[event]
}

type capturedLogEntry struct {
	ctx   context.Context
	msg   string
	attrs map[string]any
}

type capturedLogger struct {
	mu      sync.Mutex
	entries []capturedLogEntry
}

func (l *capturedLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, capturedLogEntry{
		ctx:   ctx,
		msg:   msg,
		attrs: attrsToMap(args),
	})
}

func (l *capturedLogger) snapshot() []capturedLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]capturedLogEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

func attrsToMap(args []any) map[string]any {
	attrs := make(map[string]any)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs[key] = args[i+1]
	}
	return attrs
}
