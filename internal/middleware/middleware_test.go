package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testSecret = []byte("test-secret")

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := IssueToken(testSecret, "usr-001", "a@b.com", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	expired, _ := IssueToken(testSecret, "usr-001", "a@b.com", time.Hour, time.Now().Add(-2*time.Hour))
	foreign, _ := IssueToken([]byte("other"), "usr-001", "a@b.com", time.Hour, time.Now())

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, expectedStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "wrong signing key", header: "Bearer " + foreign, expectedStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", expectedStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthTestRouter().ServeHTTP(w, req)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	token, err := IssueToken(testSecret, "usr-42", "kid@example.com", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "usr-42" || claims.Email != "kid@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Kind   string          `json:"kind" validate:"required,oneof=a b"`
	Date   string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        amountRequest
		wantFields []string
	}{
		{name: "valid", req: amountRequest{Amount: decimal.NewFromInt(5), Kind: "a", Date: "2024-01-02"}},
		{name: "zero amount", req: amountRequest{Amount: decimal.Zero, Kind: "a"}, wantFields: []string{"amount"}},
		{name: "negative amount and bad kind", req: amountRequest{Amount: decimal.NewFromInt(-1), Kind: "c"}, wantFields: []string{"amount", "kind"}},
		{name: "bad date", req: amountRequest{Amount: decimal.NewFromInt(1), Kind: "b", Date: "02/01/2024"}, wantFields: []string{"date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRequest(tt.req)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("got %+v, want fields %v", errs, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if errs[i].Field != f {
					t.Errorf("error %d field = %q, want %q", i, errs[i].Field, f)
				}
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: models.ErrInvalidAmount, want: http.StatusBadRequest},
		{err: models.ErrInvalidReference, want: http.StatusBadRequest},
		{err: models.ErrImmutableTransaction, want: http.StatusBadRequest},
		{err: fmt.Errorf("wrapped: %w", models.ErrChildNotFound), want: http.StatusNotFound},
		{err: models.ErrForbidden, want: http.StatusForbidden},
		{err: models.ErrNotTransferable, want: http.StatusConflict},
		{err: models.ErrEmailTaken, want: http.StatusConflict},
		{err: fmt.Errorf("after 3 attempts: %w", models.ErrConcurrencyConflict), want: http.StatusServiceUnavailable},
		{err: models.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondWithDomainErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		RespondWithDomainError(c, errors.New("pq: connection refused"), "Failed to load")
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusInternalServerError || body["message"] != "Failed to load" {
		t.Errorf("got %d %v", w.Code, body)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware(zap.New(core)))
	r.POST("/fail", func(c *gin.Context) {
		c.Set(userIDKey, "usr-001")
		_ = c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	okReq, _ := http.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(httptest.NewRecorder(), okReq)
	failReq, _ := http.NewRequest(http.MethodPost, "/fail", bytes.NewReader(nil))
	r.ServeHTTP(httptest.NewRecorder(), failReq)

	if logs.Len() != 2 {
		t.Fatalf("expected 2 log lines, got %d", logs.Len())
	}
	failed := logs.FilterMessage("Request failed").All()
	if len(failed) != 1 {
		t.Fatalf("expected one failed request line")
	}
	fields := failed[0].ContextMap()
	if fields["user_id"] != "usr-001" || fields["status"] != int64(500) {
		t.Errorf("unexpected fields: %v", fields)
	}
}
