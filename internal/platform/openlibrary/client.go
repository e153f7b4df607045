package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoRecord means the lookup succeeded but OpenLibrary has no data for the
// ISBN. Callers can tell it apart from transport or decode failures.
var ErrNoRecord = errors.New("openlibrary: no record for isbn")

// BookData is the subset of the OpenLibrary data view the catalog consumes.
type BookData struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverURL    string `json:"cover_url"`
	PublishDate string `json:"publish_date"`
	Publisher   string `json:"publisher"`
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
}

func NewClient(baseURL, userAgent string, rps int, maxRetries int, timeout time.Duration) *Client {
	if rps < 1 {
		rps = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
	}
}

// bookDetails matches api/books?jscmd=data.
type bookDetails struct {
	Title      string `json:"title"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate string `json:"publish_date"`
	Cover       struct {
		Medium string `json:"medium"`
	} `json:"cover"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// Lookup fetches metadata for a single ISBN. A well-formed response without
// the requested key yields ErrNoRecord.
func (c *Client) Lookup(ctx context.Context, isbn string) (BookData, error) {
	key := "ISBN:" + isbn
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&format=json&jscmd=data",
		c.baseURL, url.QueryEscape(key))

	var res map[string]bookDetails
	if err := c.get(ctx, u, &res); err != nil {
		return BookData{}, err
	}

	details, ok := res[key]
	if !ok {
		return BookData{}, ErrNoRecord
	}

	names := make([]string, 0, len(details.Authors))
	for _, a := range details.Authors {
		names = append(names, a.Name)
	}
	data := BookData{
		Title:       details.Title,
		Author:      strings.Join(names, ", "),
		CoverURL:    details.Cover.Medium,
		PublishDate: details.PublishDate,
	}
	if len(details.Publishers) > 0 {
		data.Publisher = details.Publishers[0].Name
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				continue
			}
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(target)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}
