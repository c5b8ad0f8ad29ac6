package shoppercenter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

func TestLoginReturnsSessionToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, loginPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = fmt.Fprint(w, `{"session_token":"token-123"}`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	token, err := client.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionToken("token-123"), token)
}

func TestLoginRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	_, err := client.Login(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestLoginMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	_, err := client.Login(context.Background(), "user@example.com", "hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing session token")
}

func TestFetchDeliveryPageParsesRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, deliveriesPath, r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "p2", r.URL.Query().Get("page"))
		_, _ = fmt.Fprint(w, `{"rows":[{"id":"55123","date":"10-Ene-2024"},{"id":"55122","date":""}],"next_page":"p3"}`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	rows, next, err := client.FetchDeliveryPage(context.Background(), "token-123", "p2")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p3", next)

	assert.Equal(t, domain.OrderID("55123"), rows[0].ID)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.True(t, rows[1].Date.IsZero(), "blank cell stays zero for inference")
}

func TestFetchCommissionPageParsesRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, commissionsPath, r.URL.Path)
		_, _ = fmt.Fprint(w, `{"rows":[{"id":"55123","amount":"$12.345","payment_date":"12-Ene-2024"}],"next_page":""}`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	rows, next, err := client.FetchCommissionPage(context.Background(), "token-123", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, next, "empty next page marks the last page")

	assert.Equal(t, domain.Money(12345), rows[0].Amount)
	assert.Equal(t, time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC), rows[0].PaymentDate)
}

func TestFetchPageExpiredSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	_, _, err := client.FetchDeliveryPage(context.Background(), "stale-token", "")
	require.ErrorIs(t, err, domain.ErrAuthExpired)

	_, _, err = client.FetchCommissionPage(context.Background(), "stale-token", "")
	require.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestFetchPageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})

	_, _, err := client.FetchDeliveryPage(context.Background(), "token-123", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestParseSpanishDate(t *testing.T) {
	tests := []struct {
		cell string
		want time.Time
	}{
		{"10-Ene-2024", time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)},
		{"1-dic-2023", time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{"28-Feb-2024 18:32", time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"  5-Ago-2024  ", time.Date(2024, time.August, 5, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"pendiente", time.Time{}},
		{"10-Xyz-2024", time.Time{}},
		{"40-Ene-2024", time.Time{}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, parseSpanishDate(tc.cell), "cell %q", tc.cell)
	}
}

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		cell string
		want domain.Money
	}{
		{"$12.345", 12345},
		{"12345", 12345},
		{"$ 1.234.567 CLP", 1234567},
		{"", 0},
		{"sin pago", 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, cleanAmount(tc.cell), "cell %q", tc.cell)
	}
}
