package issuer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/bundlekeys/internal/engine"
)

// ErrRevealRejected means the issuer answered but did not produce a code.
var ErrRevealRejected = errors.New("issuer rejected reveal")

type revealResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// Reveal asks the issuer to expose the code of a latent key slot.
// Revealing forfeits the option of gifting the slot.
func (c *Client) Reveal(ctx context.Context, r engine.RevealRequest) (string, error) {
	form := url.Values{
		"keytype":  {r.TypeTag},
		"key":      {r.BatchID},
		"keyindex": {strconv.Itoa(r.Index)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/humbler/redeemkey",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	if c.csrf != "" {
		req.Header.Set(csrfHeader, c.csrf)
	}

	var resp revealResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("reveal %s: %w", r.BatchID, err)
	}
	if !resp.Success || resp.Key == "" {
		return "", fmt.Errorf("reveal %s: %w", r.BatchID, ErrRevealRejected)
	}
	return resp.Key, nil
}
