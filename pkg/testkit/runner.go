package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/shashiranjanraj/sehatly/pkg/http"
)

// Run executes a single scenario file against the handler as a named
// subtest.
func Run(t *testing.T, handler http.Handler, path string) {
	t.Helper()

	s, err := Load(path)
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s)
	})
}

// RunDir runs every scenario in dir as a subtest. Body fixtures named
// *_req.json or *_res.json are skipped; everything else must be a valid
// scenario file.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("testkit: no scenario files in %q", dir)
	}

	ran := 0
	for _, path := range paths {
		base := filepath.Base(path)
		if strings.HasSuffix(base, "_req.json") || strings.HasSuffix(base, "_res.json") {
			continue
		}
		s, err := Load(path)
		if err != nil {
			t.Errorf("testkit: %v", err)
			continue
		}
		ran++
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s)
		})
	}
	if ran == 0 {
		t.Fatalf("testkit: no scenario files in %q", dir)
	}
}

// runScenario fires the request described by s and asserts the response,
// with outgoing traffic stubbed for the duration.
func runScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	reqBody, err := s.requestBody()
	require.NoError(t, err, "[%s] request body", s.Name)

	tr := NewTransport(s)
	original := apphttp.DefaultClient.Transport
	apphttp.DefaultClient.Transport = tr
	defer func() { apphttp.DefaultClient.Transport = original }()

	// Reset before, not after, so tests can inspect call counts once the
	// scenario finishes.
	resetSideEffects()
	require.NoError(t, checkSideEffects(s), "[%s]", s.Name)

	req := httptest.NewRequest(strings.ToUpper(s.Method), s.URL, reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, s.WantStatus, rec.Code,
		"[%s] status code mismatch\nbody: %s", s.Name, rec.Body.String())

	if expected, err := s.expectedBody(); err != nil {
		t.Errorf("[%s] expected body: %v", s.Name, err)
	} else if expected != nil {
		assertJSONBody(t, s, expected, rec.Body.Bytes())
	}

	for _, step := range tr.Unused() {
		t.Errorf("[%s] http mock %q was never called", s.Name, step.URLPrefix)
	}
	for _, kind := range unusedSideEffects(s) {
		t.Errorf("[%s] side effect %q was never fired", s.Name, kind)
	}
}

func (s *Scenario) requestBody() (io.Reader, error) {
	if len(s.Body) > 0 {
		return bytes.NewReader(s.Body), nil
	}
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
	return nil, nil
}

func (s *Scenario) expectedBody() ([]byte, error) {
	if len(s.WantBody) > 0 {
		return s.WantBody, nil
	}
	if p := s.ExpectedBodyPath(); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// assertJSONBody compares the bodies as decoded JSON so key order and
// whitespace never matter. testify prints the field-level diff.
func assertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expected body is not valid JSON", s.Name)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}
	assert.Equal(t, expVal, actVal, "[%s] response body mismatch", s.Name)
}
