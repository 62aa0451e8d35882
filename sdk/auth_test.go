package zeempo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/zeempo/zeempo-go/pkg/core"
)

func TestAuthRegister_SendsPayloadAndDecodesResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/register" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode register payload: %v", err)
		}
		if req.Email != "ada@example.com" || req.Password != "hunter22" || req.Name != "Ada" {
			t.Fatalf("register payload = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"user": {"id":"u1","email":"ada@example.com","name":"Ada","plan_type":"free"},
			"access_token": "tok-123"
		}`))
	})
	client := newTestClient(t, handler)

	resp, err := client.Auth.Register(context.Background(), RegisterRequest{
		Email: "ada@example.com", Password: "hunter22", Name: "Ada", Avatar: "A",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if resp.User == nil || resp.User.ID != "u1" {
		t.Fatalf("Register() user = %+v, want id u1", resp.User)
	}
	if resp.AccessToken != "tok-123" {
		t.Fatalf("Register() token = %q, want tok-123", resp.AccessToken)
	}
}

func TestAuthRegister_DuplicateEmailIsConflict(t *testing.T) {
	client := newTestClient(t, jsonHandler(t, http.StatusConflict, `{"detail":"email already registered"}`))

	_, err := client.Auth.Register(context.Background(), RegisterRequest{
		Email: "ada@example.com", Password: "hunter22", Name: "Ada",
	})
	if !core.IsType(err, core.ErrConflict) {
		t.Fatalf("Register() duplicate error = %v, want conflict_error", err)
	}
}

func TestAuthLogin_BadCredentialsIsAuthError(t *testing.T) {
	client := newTestClient(t, jsonHandler(t, http.StatusUnauthorized, `{"detail":"invalid credentials"}`))

	_, err := client.Auth.Login(context.Background(), "ada@example.com", "wrong")
	if !core.IsAuth(err) {
		t.Fatalf("Login() bad credentials error = %v, want auth_error", err)
	}
}

func TestAuthMe_ReturnsUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"ada@example.com","name":"Ada","plan_type":"premium"}`))
	})
	client := newTestClient(t, handler, WithTokenSource(StaticToken("tok-123")))

	user, err := client.Auth.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.PlanType != "premium" {
		t.Fatalf("Me() plan = %q, want premium", user.PlanType)
	}
}
