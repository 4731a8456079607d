package templates

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func geoClient(t *testing.T, body string) *http.Client {
	t.Helper()
	return &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "ip-api.com", req.URL.Host)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
		}, nil
	})}
}

func TestIPAPIResolverLookup(t *testing.T) {
	r := &IPAPIResolver{Client: geoClient(t, `{"status":"success","country":"Norway","regionName":"Oslo County","city":"Oslo","timezone":"Europe/Oslo"}`)}

	g, err := r.Lookup(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, Geo{City: "Oslo", Region: "Oslo County", Country: "Norway", Timezone: "Europe/Oslo"}, g)
}

func TestIPAPIResolverLookupFailure(t *testing.T) {
	r := &IPAPIResolver{Client: geoClient(t, `{"status":"fail","message":"private range"}`)}

	_, err := r.Lookup(context.Background(), "192.168.1.1")
	assert.ErrorContains(t, err, "private range")

	_, err = r.Lookup(context.Background(), "  ")
	assert.Error(t, err)
}

func TestIPAPIResolverReusesInjectedClient(t *testing.T) {
	calls := 0
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"success","country":"Norway"}`)),
		}, nil
	})}
	r := &IPAPIResolver{Client: client}

	for i := 0; i < 2; i++ {
		_, err := r.Lookup(context.Background(), "203.0.113.7")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Same(t, client, r.Client)
}

type stubResolver struct{ g Geo }

func (s stubResolver) Lookup(context.Context, string) (Geo, error) { return s.g, nil }

func TestWithGeoFromIP(t *testing.T) {
	data := NewLoginNotificationData(testConfig(), "Ana", "ana@example.com",
		WithIP("203.0.113.7"),
		WithGeoFromIP(context.Background(), stubResolver{g: Geo{City: "Oslo", Country: "Norway"}}, "203.0.113.7"),
	)
	assert.Equal(t, "Oslo, Norway", data["Location"])
}
