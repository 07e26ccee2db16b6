package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/bundlekeys/internal/model"
)

// storePlatform is the key type the store accepts.
const storePlatform = "Steam"

type orderRef struct {
	GameKey string `json:"gamekey"`
}

// Order is one purchase with its key entries.
type Order struct {
	GameKey string `json:"gamekey"`
	TPKDs   struct {
		AllTPKs []KeyEntry `json:"all_tpks"`
	} `json:"tpkd_dict"`
}

// KeyEntry is one key slot of an order as the issuer reports it.
type KeyEntry struct {
	GameKey      string  `json:"gamekey"`
	MachineName  string  `json:"machine_name"`
	HumanName    string  `json:"human_name"`
	KeyIndex     int     `json:"keyindex"`
	KeyType      string  `json:"key_type_human_name"`
	StoreAppID   storeID `json:"steam_app_id"`
	RedeemedCode string  `json:"redeemed_key_val"`
}

// storeID accepts the app id as a number, a string, or null.
type storeID string

func (s *storeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = storeID(n.String())
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = storeID(str)
	return nil
}

// Orders lists the gamekeys of every order on the account.
func (c *Client) Orders(ctx context.Context) ([]string, error) {
	var refs []orderRef
	if err := c.getJSON(ctx, "/api/v1/user/order", &refs); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.GameKey != "" {
			keys = append(keys, r.GameKey)
		}
	}
	return keys, nil
}

// Order fetches the details of one order including every key slot.
func (c *Client) Order(ctx context.Context, gamekey string) (Order, error) {
	var o Order
	err := c.getJSON(ctx, "/api/v1/order/"+url.PathEscape(gamekey)+"?all_tpkds=true", &o)
	return o, err
}

// FetchCandidates returns the key entries of every order, in order-list
// order. Details are fetched in parallel, bounded by the configured
// concurrency. An order that cannot be fetched is logged and skipped; a
// session failure aborts the fetch.
func (c *Client) FetchCandidates(ctx context.Context) ([]model.CandidateKey, error) {
	gamekeys, err := c.Orders(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("fetching order details", "orders", len(gamekeys))

	orders := make([]Order, len(gamekeys))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)
	for i, gk := range gamekeys {
		i, gk := i, gk
		eg.Go(func() error {
			o, err := c.Order(egCtx, gk)
			if err != nil {
				if IsSessionError(err) || errors.Is(err, context.Canceled) {
					return err
				}
				slog.Warn("skipping order", "gamekey", gk, "error", err)
				return nil
			}
			orders[i] = o
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var keys []model.CandidateKey
	for _, o := range orders {
		keys = append(keys, Extract(o)...)
	}
	return keys, nil
}

// Extract converts an order's key slots to candidates.
func Extract(o Order) []model.CandidateKey {
	keys := make([]model.CandidateKey, 0, len(o.TPKDs.AllTPKs))
	for _, e := range o.TPKDs.AllTPKs {
		keys = append(keys, e.Candidate(o.GameKey))
	}
	return keys
}

// Candidate converts the entry. fallbackBatch is used when the slot does
// not carry its own gamekey.
func (e KeyEntry) Candidate(fallbackBatch string) model.CandidateKey {
	batch := e.GameKey
	if batch == "" {
		batch = fallbackBatch
	}
	kind := model.KindOther
	if e.KeyType == storePlatform {
		kind = model.KindStoreKey
	}
	return model.CandidateKey{
		BatchID:      batch,
		DisplayName:  e.HumanName,
		StoreID:      string(e.StoreAppID),
		RevealedCode: e.RedeemedCode,
		Kind:         kind,
		TypeTag:      e.MachineName,
		Index:        e.KeyIndex,
	}
}
