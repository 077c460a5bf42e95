package testkit_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/shashiranjanraj/sehatly/pkg/http"
	"github.com/shashiranjanraj/sehatly/pkg/testkit"
)

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidatesScenario(t *testing.T) {
	dir := t.TempDir()

	for name, body := range map[string]string{
		"missing name":   `{"url": "/x", "wantStatus": 200}`,
		"missing url":    `{"name": "x", "wantStatus": 200}`,
		"missing status": `{"name": "x", "url": "/x"}`,
		"unnamed mock":   `{"name": "x", "url": "/x", "wantStatus": 200, "mocks": [{}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := writeScenario(t, dir, "bad.json", body)
			_, err := testkit.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadDefaultsMethodToGet(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "ok.json",
		`{"name": "ping", "url": "/ping", "wantStatus": 200}`)

	s, err := testkit.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GET", s.Method)
}

func TestRunExecutesScenario(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`)) //nolint:errcheck
	})

	dir := t.TempDir()
	path := writeScenario(t, dir, "health.json", `{
		"name": "health",
		"method": "GET",
		"url": "/health",
		"wantStatus": 200,
		"wantBody": {"status": "ok"}
	}`)

	testkit.Run(t, handler, path)
}

func TestRunDirSkipsBodyFixtures(t *testing.T) {
	hits := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	})

	dir := t.TempDir()
	writeScenario(t, dir, "delete.json",
		`{"name": "delete", "method": "DELETE", "url": "/things/1", "wantStatus": 204}`)
	writeScenario(t, dir, "delete_req.json", `{"ignored": true}`)
	writeScenario(t, dir, "delete_res.json", `{"ignored": true}`)

	testkit.RunDir(t, handler, dir)
	assert.Equal(t, 1, hits)
}

func TestTransportStubsOutgoingCalls(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := apphttp.Get("https://api.stripe.test/v1/balance").Send()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Raw) //nolint:errcheck
	})

	dir := t.TempDir()
	path := writeScenario(t, dir, "balance.json", `{
		"name": "balance",
		"url": "/balance",
		"wantStatus": 200,
		"wantBody": {"available": 4200},
		"strictMocks": true,
		"mocks": [
			{"kind": "http", "urlPrefix": "https://api.stripe.test/", "body": {"available": 4200}}
		]
	}`)

	testkit.Run(t, handler, path)
}

func TestTransportStrictModeRejectsUnmatchedCalls(t *testing.T) {
	s, err := testkit.Load(writeScenario(t, t.TempDir(), "strict.json", `{
		"name": "strict",
		"url": "/x",
		"wantStatus": 200,
		"strictMocks": true,
		"mocks": [{"kind": "http", "urlPrefix": "https://allowed.test/"}]
	}`))
	require.NoError(t, err)

	tr := testkit.NewTransport(s)
	req, err := http.NewRequest(http.MethodGet, "https://other.test/leak", nil)
	require.NoError(t, err)

	_, err = tr.RoundTrip(req)
	assert.ErrorContains(t, err, "no matching mock")
	require.Len(t, tr.Unused(), 1)
	assert.Equal(t, "https://allowed.test/", tr.Unused()[0].URLPrefix)
}

func TestSideEffectFiresFromFixture(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stand-in for a controller whose service sends a mail.
		require.NoError(t, testkit.SideEffectMock("sendmail").Fire([]byte(`{"to":"x"}`)))
		w.WriteHeader(http.StatusAccepted)
	})

	dir := t.TempDir()
	path := writeScenario(t, dir, "mail.json", `{
		"name": "mail",
		"method": "POST",
		"url": "/remind",
		"wantStatus": 202,
		"mocks": [{"kind": "sendmail"}]
	}`)

	testkit.Run(t, handler, path)
	assert.Equal(t, 1, testkit.SideEffectMock("sendmail").Calls())
}
