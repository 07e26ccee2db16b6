package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bundlekeys/internal/model"
)

// RevealCoordinator turns latent entries into codes, calling the issuer at
// most once per entry per run.
//
// Revealing is irreversible on the issuer side (it forfeits gift links), so
// a failed reveal is remembered and not retried in the same run.
type RevealCoordinator struct {
	revealer Revealer
	attempts map[RevealRequest]string
	calls    int
}

// NewRevealCoordinator creates a coordinator over revealer.
func NewRevealCoordinator(revealer Revealer) *RevealCoordinator {
	return &RevealCoordinator{
		revealer: revealer,
		attempts: make(map[RevealRequest]string),
	}
}

// Reveal returns key annotated with its code and the code itself.
//
// An already-revealed key is returned unchanged without a network call. A
// failed reveal is logged and yields an empty code with the key unchanged;
// the caller records it Errored without contacting the store. The error
// return is reserved for cancellation and session failures.
func (c *RevealCoordinator) Reveal(ctx context.Context, key model.CandidateKey) (model.CandidateKey, string, error) {
	if key.Revealed() {
		return key, key.RevealedCode, nil
	}

	req := RequestFor(key)
	if code, seen := c.attempts[req]; seen {
		if code == "" {
			return key, "", nil
		}
		return key.WithCode(code), code, nil
	}

	if c.revealer == nil {
		c.attempts[req] = ""
		slog.Warn("no issuer configured, cannot reveal", "batch", key.BatchID, "name", key.DisplayName)
		return key, "", nil
	}

	c.calls++
	code, err := c.revealer.Reveal(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return key, "", fmt.Errorf("reveal %s: %w", key.BatchID, ctxErr)
		}
		if errors.Is(err, ErrSessionInvalid) {
			return key, "", NewSessionError(key.BatchID, err)
		}
		c.attempts[req] = ""
		slog.Warn("error revealing key on issuer", "batch", key.BatchID, "name", key.DisplayName, "error", err)
		return key, "", nil
	}
	if code == "" {
		c.attempts[req] = ""
		slog.Warn("issuer revealed an empty code", "batch", key.BatchID, "name", key.DisplayName)
		return key, "", nil
	}

	c.attempts[req] = code
	return key.WithCode(code), code, nil
}

// Calls returns how many times the issuer was contacted.
func (c *RevealCoordinator) Calls() int {
	return c.calls
}
