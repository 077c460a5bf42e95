package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Transport implements http.RoundTripper over the "http" mock steps of a
// scenario. The runner installs it on pkg/http's shared client for the
// duration of the scenario, so nothing leaves the test process.
type Transport struct {
	mu     sync.Mutex
	steps  []httpStub
	strict bool
}

type httpStub struct {
	step  MockStep
	calls int
}

// NewTransport builds a Transport from the "http" steps in s.
func NewTransport(s *Scenario) *Transport {
	tr := &Transport{strict: s.StrictMocks}
	for _, step := range s.Mocks {
		if step.Kind != "http" {
			continue
		}
		tr.steps = append(tr.steps, httpStub{step: step})
	}
	return tr
}

// RoundTrip matches the outgoing request against the stubs, first match
// wins. With StrictMocks an unmatched request is an error, otherwise it
// gets a generic 404.
func (tr *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for i := range tr.steps {
		stub := &tr.steps[i]
		if stub.step.URLPrefix != "" && !strings.HasPrefix(req.URL.String(), stub.step.URLPrefix) {
			continue
		}
		stub.calls++
		return stubResponse(req, stub.step), nil
	}

	if tr.strict {
		return nil, fmt.Errorf("testkit: unexpected outgoing call to %s, no matching mock", req.URL)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader(`{"error":"no mock configured"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Unused returns the stubs that were never matched. The runner reports
// each as a failure, an unfired stub usually means the code under test
// skipped a call the scenario expected.
func (tr *Transport) Unused() []MockStep {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var out []MockStep
	for _, stub := range tr.steps {
		if stub.calls == 0 {
			out = append(out, stub.step)
		}
	}
	return out
}

func stubResponse(req *http.Request, step MockStep) *http.Response {
	code := step.Status
	if code == 0 {
		code = http.StatusOK
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(step.Body)),
		Request:    req,
	}
}
