package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/bundlekeys/internal/engine"
)

type redeemResponse struct {
	Success       int  `json:"success"`
	ResultDetail  *int `json:"purchase_result_details"`
	ReceiptDetail struct {
		LineItems []struct {
			Description string `json:"line_item_description"`
		} `json:"line_items"`
	} `json:"purchase_receipt_info"`
}

// Redeem submits one product code. Each call is exactly one POST; the
// transport never repeats it.
func (c *Client) Redeem(ctx context.Context, code string) (engine.RedeemResponse, error) {
	form := url.Values{
		"product_key": {code},
		"sessionid":   {c.sessionID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/account/ajaxregisterkey/",
		strings.NewReader(form.Encode()))
	if err != nil {
		return engine.RedeemResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	b, err := c.fetch(req)
	if err != nil {
		return engine.RedeemResponse{}, err
	}

	var blob redeemResponse
	if err := json.Unmarshal(b, &blob); err != nil {
		return engine.RedeemResponse{}, fmt.Errorf("decode redeem response: %w", err)
	}

	out := engine.RedeemResponse{
		Success:      blob.Success == 1,
		ResultDetail: blob.ResultDetail,
	}
	for _, item := range blob.ReceiptDetail.LineItems {
		out.LineItems = append(out.LineItems, item.Description)
	}
	return out, nil
}
