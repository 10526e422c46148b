package wallet_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roamly/roamly-api/internal/domain/wallet"
	"github.com/roamly/roamly-api/internal/middleware"
	"github.com/roamly/roamly-api/internal/pkg/jwt"
)

type walletAPIResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Balance int64 `json:"balance"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestWalletEndpointsIntegration(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	userID := uuid.New()

	repo := wallet.NewRepository(db)
	svc := wallet.NewService(repo)
	h := wallet.NewHandler(svc)

	jwtSvc := jwt.NewService("wallet-integration-secret", time.Hour)
	token, err := jwtSvc.GenerateAccessToken(userID, "user")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/api/v1/wallet", h.Routes(middleware.Auth(jwtSvc)))

	t.Run("GET /balance initial", func(t *testing.T) {
		resp := performWalletRequest(t, r, token, http.MethodGet, "/api/v1/wallet/balance", nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		body := decodeWalletResponse(t, resp)
		if !body.Success || body.Data.Balance != 0 {
			t.Fatalf("expected success=true balance=0, got success=%v balance=%d", body.Success, body.Data.Balance)
		}
	})

	t.Run("POST /topup", func(t *testing.T) {
		resp := performWalletRequest(t, r, token, http.MethodPost, "/api/v1/wallet/topup", map[string]interface{}{
			"amount":      int64(1000),
			"description": "card top-up",
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		body := decodeWalletResponse(t, resp)
		if !body.Success || body.Data.Balance != 1000 {
			t.Fatalf("expected success=true balance=1000, got success=%v balance=%d", body.Success, body.Data.Balance)
		}
	})

	t.Run("POST /withdraw", func(t *testing.T) {
		resp := performWalletRequest(t, r, token, http.MethodPost, "/api/v1/wallet/withdraw", map[string]interface{}{
			"amount":      int64(250),
			"description": "payout",
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		body := decodeWalletResponse(t, resp)
		if !body.Success || body.Data.Balance != 750 {
			t.Fatalf("expected success=true balance=750, got success=%v balance=%d", body.Success, body.Data.Balance)
		}
	})

	t.Run("POST /withdraw over balance", func(t *testing.T) {
		resp := performWalletRequest(t, r, token, http.MethodPost, "/api/v1/wallet/withdraw", map[string]interface{}{
			"amount": int64(10000),
		})
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", resp.Code)
		}
		body := decodeWalletResponse(t, resp)
		if body.Error == nil || body.Error.Code != "INSUFFICIENT_FUNDS" {
			t.Fatalf("expected INSUFFICIENT_FUNDS error, got %+v", body.Error)
		}
	})

	t.Run("POST /topup invalid amount", func(t *testing.T) {
		resp := performWalletRequest(t, r, token, http.MethodPost, "/api/v1/wallet/topup", map[string]interface{}{
			"amount": int64(-5),
		})
		if resp.Code != http.StatusUnprocessableEntity && resp.Code != http.StatusBadRequest {
			t.Fatalf("expected validation failure, got %d", resp.Code)
		}
	})

	t.Run("GET /balance unauthenticated", func(t *testing.T) {
		resp := performWalletRequest(t, r, "", http.MethodGet, "/api/v1/wallet/balance", nil)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.Code)
		}
	})
}

func performWalletRequest(t *testing.T, handler http.Handler, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body failed: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeWalletResponse(t *testing.T, resp *httptest.ResponseRecorder) walletAPIResponse {
	t.Helper()

	var body walletAPIResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return body
}
