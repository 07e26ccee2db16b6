package testutil

import (
	"context"
	"sync"

	"github.com/roach88/bundlekeys/internal/engine"
)

// Detail returns a pointer to v for building store responses.
func Detail(v int) *int {
	return &v
}

// Success is a successful store response with receipt items.
func Success(items ...string) engine.RedeemResponse {
	return engine.RedeemResponse{Success: true, LineItems: items}
}

// Failure is a failed store response carrying detail.
func Failure(detail int) engine.RedeemResponse {
	return engine.RedeemResponse{ResultDetail: Detail(detail)}
}

// NoDetail is a failed store response without a result detail.
func NoDetail() engine.RedeemResponse {
	return engine.RedeemResponse{}
}

// Reply is one scripted store answer.
type Reply struct {
	Response engine.RedeemResponse
	Err      error
}

// ScriptedStore is an engine.StoreClient that answers from per-code scripts.
//
// Each code consumes its script in order; once exhausted the last reply
// repeats. Codes without a script get Default.
type ScriptedStore struct {
	mu      sync.Mutex
	scripts map[string][]Reply
	calls   []string

	Default engine.RedeemResponse
}

// NewScriptedStore creates a store whose unscripted default is success.
func NewScriptedStore() *ScriptedStore {
	return &ScriptedStore{
		scripts: make(map[string][]Reply),
		Default: Success(),
	}
}

// Script appends responses for code.
func (s *ScriptedStore) Script(code string, responses ...engine.RedeemResponse) *ScriptedStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range responses {
		s.scripts[code] = append(s.scripts[code], Reply{Response: r})
	}
	return s
}

// ScriptError appends a transport error for code.
func (s *ScriptedStore) ScriptError(code string, err error) *ScriptedStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[code] = append(s.scripts[code], Reply{Err: err})
	return s
}

// Redeem implements engine.StoreClient.
func (s *ScriptedStore) Redeem(ctx context.Context, code string) (engine.RedeemResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, code)
	script := s.scripts[code]
	if len(script) == 0 {
		return s.Default, nil
	}
	r := script[0]
	if len(script) > 1 {
		s.scripts[code] = script[1:]
	}
	return r.Response, r.Err
}

// Calls returns every submitted code in call order.
func (s *ScriptedStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of Redeem calls.
func (s *ScriptedStore) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
