package trustedproxies

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCollectHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set(HeaderForwarded, "for=1.1.1.1")
	headers.Set(HeaderXForwardedFor, "2.2.2.2")
	headers.Set(HeaderXForwardedHost, "example.com")
	headers.Set(HeaderXForwardedProto, "https")
	headers.Set(HeaderXForwardedBy, "edge-1")

	comparer := cmp.AllowUnexported(requestHeaders{})

	t.Run("all families allowed", func(t *testing.T) {
		resolver := mustNewResolver(t)

		got := collectHeaders(resolver.config, headers)
		want := requestHeaders{
			forwarded: []string{"for=1.1.1.1"},
			xff:       []string{"2.2.2.2"},
			xfHost:    []string{"example.com"},
			xfProto:   []string{"https"},
			xfBy:      []string{"edge-1"},
		}
		if diff := cmp.Diff(want, got, comparer); diff != "" {
			t.Errorf("collectHeaders() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("disallowed families are never read", func(t *testing.T) {
		resolver := mustNewResolver(t, TrustHeaders(HeaderForwarded))

		var read []string
		recording := HeaderValuesFunc(func(name string) []string {
			read = append(read, name)
			return headers.Values(name)
		})

		got := collectHeaders(resolver.config, recording)
		want := requestHeaders{forwarded: []string{"for=1.1.1.1"}}
		if diff := cmp.Diff(want, got, comparer); diff != "" {
			t.Errorf("collectHeaders() mismatch (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff([]string{HeaderForwarded}, read); diff != "" {
			t.Errorf("headers read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil header source", func(t *testing.T) {
		resolver := mustNewResolver(t)

		got := collectHeaders(resolver.config, nil)
		if got.anyPresent() {
			t.Errorf("collectHeaders(nil) = %+v, want empty", got)
		}
	})

	t.Run("typed nil header source", func(t *testing.T) {
		resolver := mustNewResolver(t)

		var typedNil http.Header
		got := collectHeaders(resolver.config, typedNil)
		if got.anyPresent() {
			t.Errorf("collectHeaders(typed nil) = %+v, want empty", got)
		}
	})
}

func TestHeaderValuesFunc_Nil(t *testing.T) {
	var fn HeaderValuesFunc
	if got := fn.Values(HeaderForwarded); got != nil {
		t.Errorf("nil HeaderValuesFunc.Values() = %v, want nil", got)
	}
}

func TestRequestHeaders_AnyPresent(t *testing.T) {
	if (requestHeaders{}).anyPresent() {
		t.Error("empty requestHeaders should report no values")
	}
	if !(requestHeaders{xfProto: []string{"https"}}).anyPresent() {
		t.Error("requestHeaders with one family should report values present")
	}
}

func TestRequestIdentityFromInput(t *testing.T) {
	identity := requestIdentityFromInput(RequestInput{
		Authority: "example.com:8443",
		Scheme:    "https",
	})

	want := requestIdentity{host: "example.com", port: 8443, scheme: "https"}
	if identity != want {
		t.Errorf("requestIdentityFromInput() = %+v, want %+v", identity, want)
	}
}

func TestRequestIdentityFromHTTP(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
		want requestIdentity
	}{
		{
			name: "plain http",
			req:  &http.Request{Host: "example.com:8080", URL: &url.URL{}},
			want: requestIdentity{host: "example.com", port: 8080, scheme: "http"},
		},
		{
			name: "TLS connection",
			req:  &http.Request{Host: "example.com", TLS: &tls.ConnectionState{}, URL: &url.URL{}},
			want: requestIdentity{host: "example.com", scheme: "https"},
		},
		{
			name: "URL scheme used when set",
			req:  &http.Request{Host: "example.com", URL: &url.URL{Scheme: "HTTPS"}},
			want: requestIdentity{host: "example.com", scheme: "https"},
		},
		{
			name: "nil URL",
			req:  &http.Request{Host: "example.com"},
			want: requestIdentity{host: "example.com", scheme: "http"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := requestIdentityFromHTTP(tt.req); got != tt.want {
				t.Errorf("requestIdentityFromHTTP() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
