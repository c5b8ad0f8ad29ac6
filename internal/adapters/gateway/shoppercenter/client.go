// Package shoppercenter implements the authenticated-fetch gateway against
// the shopper center's row feeds. Rows arrive as raw tabular cells: dates
// use Spanish month abbreviations and amounts carry currency decoration,
// both parsed here so the core only ever sees typed records.
package shoppercenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

const (
	defaultBaseURL  = "https://cornershopapp.com"
	maxResponseSize = 1 << 20

	loginPath       = "/accounts/api/login"
	deliveriesPath  = "/shoppercenter/api/orders"
	commissionsPath = "/shoppercenter/api/commissions"
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

var _ ports.ShopperGateway = (*Client)(nil)

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  strings.TrimSpace(opts.UserAgent),
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.SessionToken, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("encode login payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("perform login request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: status %d", domain.ErrAuthFailed, response.StatusCode)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", fmt.Errorf("login: status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(decoded.SessionToken) == "" {
		return "", fmt.Errorf("login response missing session token")
	}

	return domain.SessionToken(decoded.SessionToken), nil
}

func (c *Client) FetchDeliveryPage(ctx context.Context, token domain.SessionToken, pageToken string) ([]domain.DeliveryRecord, string, error) {
	var page struct {
		Rows []struct {
			ID   string `json:"id"`
			Date string `json:"date"`
		} `json:"rows"`
		NextPage string `json:"next_page"`
	}
	if err := c.fetchPage(ctx, token, deliveriesPath, pageToken, &page); err != nil {
		return nil, "", err
	}

	rows := make([]domain.DeliveryRecord, 0, len(page.Rows))
	for _, row := range page.Rows {
		rows = append(rows, domain.DeliveryRecord{
			ID:   domain.OrderID(row.ID),
			Date: parseSpanishDate(row.Date),
		})
	}
	return rows, page.NextPage, nil
}

func (c *Client) FetchCommissionPage(ctx context.Context, token domain.SessionToken, pageToken string) ([]domain.CommissionRecord, string, error) {
	var page struct {
		Rows []struct {
			ID          string `json:"id"`
			Amount      string `json:"amount"`
			PaymentDate string `json:"payment_date"`
		} `json:"rows"`
		NextPage string `json:"next_page"`
	}
	if err := c.fetchPage(ctx, token, commissionsPath, pageToken, &page); err != nil {
		return nil, "", err
	}

	rows := make([]domain.CommissionRecord, 0, len(page.Rows))
	for _, row := range page.Rows {
		rows = append(rows, domain.CommissionRecord{
			ID:          domain.OrderID(row.ID),
			Amount:      cleanAmount(row.Amount),
			PaymentDate: parseSpanishDate(row.PaymentDate),
		})
	}
	return rows, page.NextPage, nil
}

func (c *Client) fetchPage(ctx context.Context, token domain.SessionToken, path, pageToken string, out any) error {
	endpoint := c.baseURL + path
	if pageToken != "" {
		endpoint += "?page=" + url.QueryEscape(pageToken)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create page request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+string(token))
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("perform page request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read page response: %w", err)
	}
	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", domain.ErrAuthExpired, response.StatusCode)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("fetch %s: status %d: %s", path, response.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode page response: %w", err)
	}
	return nil
}

var spanishMonths = map[string]time.Month{
	"ene": time.January, "feb": time.February, "mar": time.March,
	"abr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dic": time.December,
}

var spanishDatePattern = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3})-(\d{4})`)

// parseSpanishDate reads cells like "10-Ene-2024" (trailing text ignored).
// A blank or garbled cell yields the zero time; on the delivery side that
// marks the row for date inference.
func parseSpanishDate(cell string) time.Time {
	match := spanishDatePattern.FindStringSubmatch(strings.TrimSpace(cell))
	if match == nil {
		return time.Time{}
	}
	month, ok := spanishMonths[strings.ToLower(match[2])]
	if !ok {
		return time.Time{}
	}
	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])
	if day < 1 || day > 31 {
		return time.Time{}
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var nonDigits = regexp.MustCompile(`\D`)

// cleanAmount strips currency decoration ("$12.345" -> 12345). The shopper
// center renders whole pesos, so the dot is a thousands separator.
func cleanAmount(cell string) domain.Money {
	digits := nonDigits.ReplaceAllString(cell, "")
	if digits == "" {
		return 0
	}
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return domain.Money(value)
}
