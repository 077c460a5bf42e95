package testkit

import (
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"
)

// SideEffect records a non-HTTP outgoing call (mail, push notification)
// during a scenario. Fixtures plug it into their test doubles and call
// Fire when the code under test reaches them; a scenario that declares
// the step then fails unless it fired. It wraps a testify mock so tests
// can layer their own expectations on top:
//
//	m := testkit.SideEffectMock("sendmail")
//	m.Mock().AssertNumberOfCalls(t, "Fire", 1)
type SideEffect struct {
	kind  string
	mu    sync.Mutex
	m     mock.Mock
	calls int
}

// NewSideEffect creates a SideEffect for the named kind, pre-configured
// to accept any call.
func NewSideEffect(kind string) *SideEffect {
	se := &SideEffect{kind: kind}
	se.m.On("Fire", mock.AnythingOfType("[]uint8")).Return(nil)
	return se
}

// Fire records the call and returns the configured error, if any.
func (se *SideEffect) Fire(payload []byte) error {
	se.mu.Lock()
	se.calls++
	se.mu.Unlock()

	args := se.m.Called(payload)
	if args.Get(0) == nil {
		return nil
	}
	return args.Error(0)
}

// Calls reports how many times Fire ran since the last reset.
func (se *SideEffect) Calls() int {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.calls
}

// Mock exposes the embedded testify mock for custom expectations.
func (se *SideEffect) Mock() *mock.Mock { return &se.m }

func (se *SideEffect) reset() {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.calls = 0
	se.m.Calls = nil
	se.m.ExpectedCalls = nil
	se.m.On("Fire", mock.AnythingOfType("[]uint8")).Return(nil)
}

var (
	sideEffectMu sync.RWMutex
	sideEffects  = map[string]*SideEffect{
		"sendmail":     NewSideEffect("sendmail"),
		"notification": NewSideEffect("notification"),
	}
)

// RegisterSideEffect adds a custom side-effect mock. Call from the test
// package's init() so scenario files can reference it by kind.
func RegisterSideEffect(kind string, se *SideEffect) {
	sideEffectMu.Lock()
	defer sideEffectMu.Unlock()
	sideEffects[kind] = se
}

// SideEffectMock returns the registered mock for kind, nil when unknown.
func SideEffectMock(kind string) *SideEffect {
	sideEffectMu.RLock()
	defer sideEffectMu.RUnlock()
	return sideEffects[kind]
}

func resetSideEffects() {
	sideEffectMu.RLock()
	defer sideEffectMu.RUnlock()
	for _, se := range sideEffects {
		se.reset()
	}
}

// checkSideEffects verifies every non-http mock step names a registered
// side effect. Run before the request so a typo in a scenario file fails
// loudly instead of silently passing.
func checkSideEffects(s *Scenario) error {
	for i, step := range s.Mocks {
		if step.Kind == "http" {
			continue
		}
		if SideEffectMock(step.Kind) == nil && s.StrictMocks {
			return fmt.Errorf("testkit: no side effect registered for %q (step %d)", step.Kind, i)
		}
	}
	return nil
}

// unusedSideEffects returns the kinds of non-http steps whose side effect
// never fired during the scenario. The fixture's test doubles are expected
// to call Fire on the registered mock when the code under test reaches
// them.
func unusedSideEffects(s *Scenario) []string {
	var out []string
	seen := map[string]bool{}
	for _, step := range s.Mocks {
		if step.Kind == "http" || seen[step.Kind] {
			continue
		}
		seen[step.Kind] = true
		se := SideEffectMock(step.Kind)
		if se != nil && se.Calls() == 0 {
			out = append(out, step.Kind)
		}
	}
	return out
}
