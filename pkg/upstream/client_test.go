package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/angelmondragon/vitrine-checkout/pkg/config"
	pkgerrors "github.com/angelmondragon/vitrine-checkout/pkg/errors"
	"github.com/angelmondragon/vitrine-checkout/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := New("backend", "http://api.test/", 0, opts...)
	require.NoError(t, err)
	return client
}

func TestDoJSONBuildsRequestAndDecodes(t *testing.T) {
	var captured *http.Request
	var capturedBody string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		raw, _ := io.ReadAll(req.Body)
		capturedBody = string(raw)
		return jsonResponse(http.StatusOK, `{"id":42}`), nil
	}, WithUserAgent("vitrine-test"))

	var out struct {
		ID int `json:"id"`
	}
	err := client.DoJSON(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/pedido/cadastrar",
		Query:  url.Values{"x": []string{"1"}},
		Header: http.Header{"Authorization": []string{"Bearer abc"}},
		Body:   map[string]string{"k": "v"},
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, 42, out.ID)
	assert.Equal(t, "http://api.test/pedido/cadastrar?x=1", captured.URL.String())
	assert.Equal(t, "Bearer abc", captured.Header.Get("Authorization"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.Equal(t, "vitrine-test", captured.Header.Get("User-Agent"))
	assert.JSONEq(t, `{"k":"v"}`, capturedBody)
}

func TestDoReturnsStatusErrorWithServerMessage(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity, `{"mensagem":"CPF inválido"}`), nil
	})

	resp, err := client.Do(context.Background(), Request{Path: "pedido/cadastrar"})
	require.Error(t, err)
	require.NotNil(t, resp)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Equal(t, "CPF inválido", statusErr.Message)

	dump := pkgerrors.Dump(err)
	assert.Equal(t, "backend", dump.Upstream)
	assert.Equal(t, http.StatusUnprocessableEntity, dump.UpstreamStatus)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusNotFound, `{}`), nil
	}, WithBreaker(config.BreakerConfig{FailureThreshold: 1}))

	for i := 0; i < 3; i++ {
		_, err := client.Do(context.Background(), Request{Path: "vitrine/x"})
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.True(t, statusErr.NotFound())
	}
	assert.Equal(t, 3, calls)
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewUpstreamMetrics(reg)
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusInternalServerError, `boom`), nil
	}, WithMetrics(m), WithBreaker(config.BreakerConfig{FailureThreshold: 2}))

	for i := 0; i < 2; i++ {
		_, err := client.Do(context.Background(), Request{})
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, "boom", statusErr.Message)
	}

	_, err := client.Do(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, 2, calls)

	assert.Equal(t, 3.0, counterValue(t, reg, "backend", metrics.OutcomeFailure))
}

func TestTransportErrorMapsToDependency(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: refused")
	})

	_, err := client.Do(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("backend", " ", 0)
	assert.Error(t, err)
	_, err = New("", "http://x", 0)
	assert.Error(t, err)
}

func TestExtractMessage(t *testing.T) {
	cases := map[string]string{
		`{"message":"falhou"}`: "falhou",
		`{"error":"nope"}`:     "nope",
		`{"other":"x"}`:        "",
		`"texto"`:              "texto",
		`plain failure`:        "plain failure",
		`<html>502</html>`:     "",
		``:                     "",
	}
	for body, want := range cases {
		assert.Equal(t, want, extractMessage([]byte(body)), body)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, upstream, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "vitrine_upstream_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["upstream"] == upstream && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("counter %s/%s not found", upstream, outcome)
	return 0
}
