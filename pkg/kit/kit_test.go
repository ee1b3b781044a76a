package kit

import (
	"net/http"
	"net/netip"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"ok", `{"name":"a"}`, false},
		{"unknown field", `{"nope":1}`, true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, true},
		{"not json", `name=a`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()

			var b body
			err := DecodeJSON(w, r, &b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", b.Name)
		})
	}
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid", "tok", "Bearer tok", http.StatusOK},
		{"wrong", "tok", "Bearer bad", http.StatusForbidden},
		{"missing", "tok", "", http.StatusForbidden},
		{"disabled", "", "Bearer ", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			MetricsAuth(tt.token)(ok).ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func limitCodes(h http.Handler, remoteAddr string, xffs ...string) []int {
	codes := make([]int, 0, len(xffs))
	for _, xff := range xffs {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = remoteAddr
		r.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	return codes
}

func TestRateLimitByIP_IgnoresForwardedHeaderFromUntrustedPeer(t *testing.T) {
	h := RateLimitByIP(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := limitCodes(h, "198.51.100.7:4000", "10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4")

	assert.Equal(t, []int{
		http.StatusNoContent, http.StatusNoContent,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestRateLimitByIP_TrustedProxyUsesLastHop(t *testing.T) {
	gw := netip.MustParsePrefix("172.18.0.0/16")
	h := RateLimitByIP(1, time.Minute, gw)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// A client rotating the first hop still lands on the same bucket.
	codes := limitCodes(h, "172.18.0.2:5000", "1.1.1.1, 203.0.113.9", "2.2.2.2, 203.0.113.9")
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests}, codes)

	codes = limitCodes(h, "172.18.0.2:5000", "203.0.113.10")
	assert.Equal(t, []int{http.StatusNoContent}, codes)
}

func TestParsePrefixes(t *testing.T) {
	got, err := ParsePrefixes([]string{"10.0.0.0/8", " 192.0.2.1 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.1/32"),
	}, got)

	_, err = ParsePrefixes([]string{"gateway"})
	assert.Error(t, err)
}

func TestMetricsMiddleware_CountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	h := m.Middleware("test", func(r *http.Request) string { return r.URL.Path })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	got := testutil.ToFloat64(m.Requests.WithLabelValues("test", http.MethodGet, "/x", "418"))
	assert.Equal(t, float64(1), got)
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger("svc", "loud")
	assert.Error(t, err)

	log, err := NewLogger("svc", "debug")
	require.NoError(t, err)
	assert.NotNil(t, log)
}
