package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/scan"
	"pennywise/internal/storage/memory"
)

type fakeScanner struct {
	draft scan.Draft
	err   error
}

func (f *fakeScanner) Extract(_ context.Context, _ []byte, _ string) (scan.Draft, error) {
	return f.draft, f.err
}

func newTestServer(t *testing.T) (*Server, *fakeScanner) {
	t.Helper()
	store := memory.New()
	logger := log.New(log.DefaultConfig())
	authService := auth.NewService(store, time.Hour, logger)
	scanner := &fakeScanner{draft: scan.Draft{
		Total:    core.Money{Cents: 42_50},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 15),
		Merchant: "Corner Cafe",
	}}
	s := NewServer(":0", authService, store, nil, scanner, logger)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})
	return s, scanner
}

func do(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, s *Server, email string) string {
	t.Helper()
	rec := do(s, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignUpAndDuplicate(t *testing.T) {
	s, _ := newTestServer(t)

	signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "alice@example.com",
		"password": "another-pass",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignInWrongPassword(t *testing.T) {
	s, _ := newTestServer(t)
	signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPost, "/auth/signin", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/settings", "/expenses", "/dashboard"} {
		rec := do(s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := do(s, http.MethodGet, "/settings", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodGet, "/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings settingsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "USD", settings.Currency)
	assert.Equal(t, "1000.00", settings.BudgetLimit)
	assert.Equal(t, "500.00", settings.SavingsGoal)
	assert.False(t, settings.IsOnboarded)

	settings.IsOnboarded = true
	settings.Name = "Alice"
	settings.Currency = "EUR"
	settings.BudgetLimit = "2000.00"
	settings.Language = "fr"

	rec = do(s, http.MethodPut, "/settings", token, settings)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(s, http.MethodGet, "/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "EUR", settings.Currency)
	assert.Equal(t, "2000.00", settings.BudgetLimit)
	assert.True(t, settings.IsOnboarded)
}

func TestSettingsRejectsInvalid(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPut, "/settings", token, settingsPayload{
		Currency:       "USD",
		IncomeStyle:    "irregular",
		BudgetLimit:    "0",
		SavingsGoal:    "500.00",
		CurrentSavings: "0",
		Language:       "en",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExpenseCreateAndList(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPost, "/expenses", token, expensePayload{
		Amount:   "12.34",
		Category: "Food",
		Date:     "2024-03-10",
		Merchant: "Deli",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created expensePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "12.34", created.Amount)

	rec = do(s, http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []expensePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestExpenseRejectsZeroAmount(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPost, "/expenses", token, expensePayload{
		Amount:   "0",
		Category: "Food",
		Date:     "2024-03-10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	today := core.DateOf(time.Now())
	rec := do(s, http.MethodPost, "/expenses", token, expensePayload{
		Amount:   "850.00",
		Category: "Housing",
		Date:     today.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(s, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dash dashboardPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "850.00", dash.MonthTotal)
	assert.Equal(t, "850.00", dash.DayTotal)
	assert.Equal(t, "150.00", dash.Remaining)
	assert.Equal(t, string(core.NearBudget), dash.Tier)
	assert.InDelta(t, 0.85, dash.UsageRatio, 1e-9)
	require.Len(t, dash.ByCategory, 1)
	assert.Equal(t, "Housing", dash.ByCategory[0].Category)
	assert.Equal(t, "$", dash.CurrencySymbol)
}

func TestDashboardOtherMonthIsEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPost, "/expenses", token, expensePayload{
		Amount:   "10.00",
		Category: "Food",
		Date:     core.DateOf(time.Now()).String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// A different year has no expenses.
	rec = do(s, http.MethodGet, "/dashboard?year=2020&month=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash dashboardPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, "0.00", dash.MonthTotal)
	assert.Equal(t, string(core.OnTrack), dash.Tier)
}

func TestScan(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="receipt.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-image-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var draft draftPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	assert.Equal(t, "42.50", draft.Total)
	assert.Equal(t, "Food", draft.Category)
	assert.Equal(t, "2024-03-15", draft.Date)
	assert.Equal(t, "Corner Cafe", draft.Merchant)
}

func TestScanInvalidInput(t *testing.T) {
	s, scanner := newTestServer(t)
	scanner.err = scan.ErrInvalidInput
	token := signUp(t, s, "alice@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "receipt.bin")
	require.NoError(t, err)
	_, err = part.Write([]byte("not-an-image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSignOutInvalidatesToken(t *testing.T) {
	s, _ := newTestServer(t)
	token := signUp(t, s, "alice@example.com")

	rec := do(s, http.MethodPost, "/auth/signout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(s, http.MethodGet, "/settings", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBeginOAuth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodPost, "/auth/oauth", "", map[string]string{"provider": "google"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp["url"], "https://"))

	rec = do(s, http.MethodPost, "/auth/oauth", "", map[string]string{"provider": "myspace"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
