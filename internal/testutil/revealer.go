package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/bundlekeys/internal/engine"
)

// ErrRevealRefused is returned for batches marked as failing.
var ErrRevealRefused = errors.New("issuer refused reveal")

// ScriptedRevealer is an engine.Revealer backed by a batch->code table.
// Batches not in the table fail with ErrRevealRefused.
type ScriptedRevealer struct {
	mu    sync.Mutex
	codes map[string]string
	errs  map[string]error
	calls []engine.RevealRequest
}

// NewScriptedRevealer creates a revealer with no codes.
func NewScriptedRevealer() *ScriptedRevealer {
	return &ScriptedRevealer{
		codes: make(map[string]string),
		errs:  make(map[string]error),
	}
}

// Code makes batch reveal to code.
func (r *ScriptedRevealer) Code(batch, code string) *ScriptedRevealer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[batch] = code
	return r
}

// Fail makes batch fail with err.
func (r *ScriptedRevealer) Fail(batch string, err error) *ScriptedRevealer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[batch] = err
	return r
}

// Reveal implements engine.Revealer.
func (r *ScriptedRevealer) Reveal(ctx context.Context, req engine.RevealRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, req)
	if err, ok := r.errs[req.BatchID]; ok {
		return "", err
	}
	if code, ok := r.codes[req.BatchID]; ok {
		return code, nil
	}
	return "", ErrRevealRefused
}

// Calls returns every reveal request in call order.
func (r *ScriptedRevealer) Calls() []engine.RevealRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.RevealRequest, len(r.calls))
	copy(out, r.calls)
	return out
}
