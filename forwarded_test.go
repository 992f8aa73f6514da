package trustedproxies

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var hopClaimComparer = cmp.AllowUnexported(hopClaim{})

func TestParseForwardedChain(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []hopClaim
	}{
		{
			name:   "no values",
			values: nil,
			want:   nil,
		},
		{
			name:   "single for value",
			values: []string{"for=1.1.1.1"},
			want: []hopClaim{
				{forValue: "1.1.1.1", hasFor: true},
			},
		},
		{
			name:   "case-insensitive parameter name",
			values: []string{"For=1.1.1.1"},
			want: []hopClaim{
				{forValue: "1.1.1.1", hasFor: true},
			},
		},
		{
			name:   "multiple elements reversed to nearest first",
			values: []string{"for=1.1.1.1, for=8.8.8.8"},
			want: []hopClaim{
				{forValue: "8.8.8.8", hasFor: true},
				{forValue: "1.1.1.1", hasFor: true},
			},
		},
		{
			name:   "multiple header lines flattened before reversal",
			values: []string{"for=1.1.1.1", "for=8.8.8.8"},
			want: []hopClaim{
				{forValue: "8.8.8.8", hasFor: true},
				{forValue: "1.1.1.1", hasFor: true},
			},
		},
		{
			name:   "all recognized parameters",
			values: []string{"for=1.1.1.1;host=example.com:8080;proto=https;by=edge-1"},
			want: []hopClaim{
				{
					forValue: "1.1.1.1", hasFor: true,
					host: "example.com:8080", hasHost: true,
					scheme: "https", hasScheme: true,
					by: "edge-1", hasBy: true,
				},
			},
		},
		{
			name:   "unrecognized parameters ignored",
			values: []string{"for=1.1.1.1;secret=value"},
			want: []hopClaim{
				{forValue: "1.1.1.1", hasFor: true},
			},
		},
		{
			name:   "element with only unrecognized parameters yields empty claim",
			values: []string{"secret=value"},
			want: []hopClaim{
				{},
			},
		},
		{
			name:   "quoted values unquoted",
			values: []string{`for="[2606:4700:4700::1]:8080";host="example.com"`},
			want: []hopClaim{
				{
					forValue: "[2606:4700:4700::1]:8080", hasFor: true,
					host: "example.com", hasHost: true,
				},
			},
		},
		{
			name:   "quoted comma does not split elements",
			values: []string{`host="a.example, b.example", for=1.1.1.1`},
			want: []hopClaim{
				{forValue: "1.1.1.1", hasFor: true},
				{host: "a.example, b.example", hasHost: true},
			},
		},
		{
			name:   "parameter without equals skips only that element",
			values: []string{"garbage, for=8.8.8.8"},
			want: []hopClaim{
				{forValue: "8.8.8.8", hasFor: true},
			},
		},
		{
			name:   "unterminated quote skips only the broken tail",
			values: []string{`for=1.1.1.1, for="8.8.8.8`},
			want: []hopClaim{
				{forValue: "1.1.1.1", hasFor: true},
			},
		},
		{
			name:   "repeated recognized key keeps the last value",
			values: []string{"for=1.1.1.1;for=8.8.8.8"},
			want: []hopClaim{
				{forValue: "8.8.8.8", hasFor: true},
			},
		},
		{
			name:   "whitespace tolerated around elements and parameters",
			values: []string{"  for=1.1.1.1 ;  proto=https , for=8.8.8.8  "},
			want: []hopClaim{
				{forValue: "8.8.8.8", hasFor: true},
				{forValue: "1.1.1.1", hasFor: true, scheme: "https", hasScheme: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := mustNewResolver(t)

			got := resolver.parseForwardedChain(context.Background(), tt.values)
			if diff := cmp.Diff(tt.want, got, hopClaimComparer); diff != "" {
				t.Errorf("parseForwardedChain() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseForwardedChain_MalformedElementsRecorded(t *testing.T) {
	metrics := newRecordingMetrics()
	logger := &capturedLogger{}
	resolver := mustNewResolver(t, WithMetrics(metrics), WithLogger(logger))

	got := resolver.parseForwardedChain(context.Background(), []string{"garbage, for=8.8.8.8"})
	if len(got) != 1 {
		t.Fatalf("parseForwardedChain() chain length = %d, want 1", len(got))
	}

	if metrics.eventCount(securityEventMalformedForwarded) != 1 {
		t.Errorf("malformed_forwarded events = %d, want 1", metrics.eventCount(securityEventMalformedForwarded))
	}

	entries := logger.snapshot()
	if len(entries) != 1 {
		t.Fatalf("warning count = %d, want 1", len(entries))
	}
	if entries[0].attrs["event"] != securityEventMalformedForwarded {
		t.Errorf("warning event = %v, want %q", entries[0].attrs["event"], securityEventMalformedForwarded)
	}
}

func TestParseForwardedChain_CapsChainLength(t *testing.T) {
	resolver := mustNewResolver(t, MaxChainLength(2))

	got := resolver.parseForwardedChain(context.Background(), []string{"for=1.1.1.1, for=2.2.2.2, for=3.3.3.3"})

	want := []hopClaim{
		{forValue: "3.3.3.3", hasFor: true},
		{forValue: "2.2.2.2", hasFor: true},
	}
	if diff := cmp.Diff(want, got, hopClaimComparer); diff != "" {
		t.Errorf("parseForwardedChain() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseForwardedElement(t *testing.T) {
	tests := []struct {
		name    string
		element string
		want    hopClaim
		wantOK  bool
	}{
		{
			name:    "simple for",
			element: "for=1.1.1.1",
			want:    hopClaim{forValue: "1.1.1.1", hasFor: true},
			wantOK:  true,
		},
		{
			name:    "empty value keeps key presence",
			element: "for=",
			want:    hopClaim{hasFor: true},
			wantOK:  true,
		},
		{
			name:    "missing equals",
			element: "for",
			wantOK:  false,
		},
		{
			name:    "empty key",
			element: "=1.1.1.1",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseForwardedElement(tt.element)
			if ok != tt.wantOK {
				t.Fatalf("parseForwardedElement(%q) ok = %v, want %v", tt.element, ok, tt.wantOK)
			}
			if !ok {
				return
			}

			if diff := cmp.Diff(tt.want, got, hopClaimComparer); diff != "" {
				t.Errorf("parseForwardedElement(%q) mismatch (-want +got):\n%s", tt.element, diff)
			}
		})
	}
}
