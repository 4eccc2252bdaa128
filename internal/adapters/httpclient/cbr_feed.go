package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"cbrates/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const DefaultCBRFeedURL = "https://www.cbr-xml-daily.ru/daily_json.js"

// CBRClient reads the daily rates feed of the Central Bank of Russia.
// It keeps no state between calls and is safe for concurrent use.
type CBRClient struct {
	http     *http.Client
	url      string
	validate *validator.Validate
}

type feedResponse struct {
	Valute map[string]json.RawMessage `json:"Valute"`
}

type feedRecord struct {
	CharCode string   `json:"CharCode" validate:"required,len=3,alpha,uppercase"`
	Name     string   `json:"Name" validate:"required"`
	Value    *float64 `json:"Value" validate:"required,gt=0"`
}

func (c *CBRClient) FetchAll(ctx context.Context) ([]domain.RemoteRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute feed request: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read feed body: %w", domain.ErrSourceUnavailable, err)
	}

	var body feedResponse
	if err = json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode feed: %w", domain.ErrMalformedFeed, err)
	}
	if body.Valute == nil {
		return nil, fmt.Errorf("%w: \"Valute\" object is missing", domain.ErrMalformedFeed)
	}

	return c.parseRecords(body.Valute)
}

func (c *CBRClient) parseRecords(raw map[string]json.RawMessage) ([]domain.RemoteRate, error) {
	rates := make([]domain.RemoteRate, 0, len(raw))
	seen := make(map[string]string, len(raw))

	for key, msg := range raw {
		var rec feedRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %q is not an object: %w", domain.ErrMalformedFeed, key, err)
		}
		if err := c.validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: record %q is invalid: %w", domain.ErrMalformedFeed, key, err)
		}
		if other, ok := seen[rec.CharCode]; ok {
			return nil, fmt.Errorf("%w: records %q and %q share code %q", domain.ErrMalformedFeed, other, key, rec.CharCode)
		}
		seen[rec.CharCode] = key

		rates = append(rates, domain.RemoteRate{Code: rec.CharCode, Name: rec.Name, Rate: *rec.Value})
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Code < rates[j].Code })
	for _, r := range rates {
		logrus.Debugf("%s (%s) - %v", r.Name, r.Code, r.Rate)
	}
	return rates, nil
}

func NewCBRClient(httpClient *http.Client, url string) *CBRClient {
	if url == "" {
		url = DefaultCBRFeedURL
	}
	return &CBRClient{
		http:     httpClient,
		url:      url,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}
