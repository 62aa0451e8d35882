package zeempo

import (
	"context"
	"net/http"
)

// PaymentsService wraps the opaque checkout endpoint. The whole payment
// flow from the client's side is one call returning a redirect target.
type PaymentsService struct {
	client *Client
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckout starts a checkout for the current user and returns the
// URL the caller should redirect to.
func (s *PaymentsService) CreateCheckout(ctx context.Context) (string, error) {
	var out checkoutResponse
	if err := s.client.doJSON(ctx, http.MethodPost, "/payments/create-checkout", struct{}{}, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
