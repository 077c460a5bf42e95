// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario describes one request against the API surface and what the
// response must look like. Request and expected bodies are written inline
// as JSON, or in sibling *_req.json / *_res.json files for bigger
// payloads. Scenario files live in a testdata/ directory next to the
// _test.go that runs them:
//
//	func TestAPIScenarios(t *testing.T) {
//	    r := router.New()
//	    routes.RegisterAPI(r, controllers)
//	    testkit.RunDir(t, r.Handler(), "testdata")
//	}
//
// Scenarios can also stub outgoing traffic: "http" mock steps intercept
// calls made through pkg/http, and named side-effect mocks (sendmail,
// notification) swallow non-HTTP calls so a scenario never leaves the
// test process.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one API test case loaded from a JSON file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`

	// Request body, either inline or from a file next to the scenario.
	Body     json.RawMessage `json:"body"`
	BodyFile string          `json:"bodyFile"`

	WantStatus int `json:"wantStatus"`

	// Expected response body, inline or from a file. Compared as JSON,
	// so key order and whitespace never matter. Omit both to assert the
	// status code only.
	WantBody     json.RawMessage `json:"wantBody"`
	WantBodyFile string          `json:"wantBodyFile"`

	// StrictMocks fails the scenario when an outgoing HTTP call has no
	// matching mock step.
	StrictMocks bool       `json:"strictMocks"`
	Mocks       []MockStep `json:"mocks"`

	dir string // directory of the scenario file, set at load time
}

// MockStep stubs one outgoing call for the duration of a scenario.
//
// Kind "http" intercepts requests sent through pkg/http. Any other kind
// names a registered side-effect mock (sendmail, notification, or one
// added with RegisterSideEffect).
type MockStep struct {
	Kind string `json:"kind"`

	// URLPrefix matches outgoing HTTP requests by prefix. Empty matches
	// every request. Ignored for non-http kinds.
	URLPrefix string `json:"urlPrefix"`

	// Status is the synthetic HTTP status. Defaults to 200.
	Status int `json:"status"`

	// Body is the synthetic response body, inline JSON.
	Body json.RawMessage `json:"body"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.WantStatus == 0 {
		return fmt.Errorf("wantStatus is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	for i, step := range s.Mocks {
		if step.Kind == "" {
			return fmt.Errorf("mocks[%d].kind is required", i)
		}
	}
	return nil
}

// RequestBodyPath resolves BodyFile against the scenario's directory.
// Empty when the scenario sends no body.
func (s *Scenario) RequestBodyPath() string {
	return s.resolve(s.BodyFile)
}

// ExpectedBodyPath resolves WantBodyFile against the scenario's directory.
// Empty when the scenario asserts status only.
func (s *Scenario) ExpectedBodyPath() string {
	return s.resolve(s.WantBodyFile)
}

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
