package zeempo

import (
	"context"
	"net/http"
	"testing"

	"github.com/zeempo/zeempo-go/pkg/core"
)

func TestCreateCheckout_ReturnsRedirectURL(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payments/create-checkout" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://pay.example.com/c/abc"}`))
	})
	client := newTestClient(t, handler)

	url, err := client.Payments.CreateCheckout(context.Background())
	if err != nil {
		t.Fatalf("CreateCheckout() error = %v", err)
	}
	if url != "https://pay.example.com/c/abc" {
		t.Fatalf("CreateCheckout() = %q", url)
	}
}

func TestCreateCheckout_RequiresCredential(t *testing.T) {
	client := newTestClient(t, jsonHandler(t, http.StatusUnauthorized, `{"detail":"not authenticated"}`))

	_, err := client.Payments.CreateCheckout(context.Background())
	if !core.IsAuth(err) {
		t.Fatalf("CreateCheckout() without credential error = %v, want auth_error", err)
	}
}
