package ojs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// maxResponseBytes bounds API and page bodies.
const maxResponseBytes = 10 << 20

// Publication is the metadata matched for one vernacular title.
type Publication struct {
	SubmissionID    int64  `json:"submission_id" yaml:"submission_id"`
	EnglishTitle    string `json:"english_title" yaml:"english_title"`
	VernacularTitle string `json:"vernacular_title" yaml:"vernacular_title"`
	PublishedURL    string `json:"published_url" yaml:"published_url"`
}

// LocalizedText maps locale keys to text. OJS serializes an empty map as a
// JSON array, and null values for missing translations; both decode to empty.
type LocalizedText map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (l *LocalizedText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
		*l = LocalizedText{}
		return nil
	}

	var raw map[string]*string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decoding localized text: %w", err)
	}
	out := make(LocalizedText, len(raw))
	for locale, v := range raw {
		if v != nil {
			out[locale] = *v
		}
	}
	*l = out
	return nil
}

type submissionsResponse struct {
	ItemsMax int          `json:"itemsMax"`
	Items    []submission `json:"items"`
}

type submission struct {
	ID           int64         `json:"id"`
	URLPublished string        `json:"urlPublished"`
	Publications []publication `json:"publications"`
}

type publication struct {
	ID        int64         `json:"id"`
	Title     LocalizedText `json:"title"`
	FullTitle LocalizedText `json:"fullTitle"`
}

// SearchURL builds the submissions search URL for a phrase.
func (c *Client) SearchURL(phrase string) string {
	params := url.Values{}
	params.Set("apiToken", c.config.APIKey)
	params.Set("status", strconv.Itoa(c.config.Status))
	params.Set("count", strconv.Itoa(c.config.Count))
	params.Set("searchPhrase", phrase)

	base := c.config.BaseURL
	if c.config.JournalPath != "" {
		base += "/" + url.PathEscape(c.config.JournalPath)
	}
	return base + "/api/v1/submissions?" + params.Encode()
}

// LookupBySearchPhrase searches the journal's accepted submissions for a
// publication whose vernacular title equals title byte for byte. The first
// match wins. No match, or a match without an English title or published URL,
// yields ErrNotFound; transport and decoding failures yield ErrUpstreamUnavailable.
func (c *Client) LookupBySearchPhrase(ctx context.Context, title string) (*Publication, error) {
	const op = "search submissions"
	if title == "" {
		return nil, &NotFoundError{Title: title, Reason: "empty title"}
	}

	reqURL := c.SearchURL(title)
	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transportError(op, reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, newUpstreamError(op, reqURL, resp.StatusCode, nil)
	}

	var result submissionsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, newUpstreamError(op, reqURL, resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}

	c.logger.Debug().
		Str("search_phrase", title).
		Int("items", len(result.Items)).
		Int("items_max", result.ItemsMax).
		Msg("submissions search")

	pub, ok := c.match(result.Items, title)
	if !ok {
		return nil, &NotFoundError{Title: title, Reason: fmt.Sprintf("no exact match among %d submissions", len(result.Items))}
	}
	if pub.EnglishTitle == "" {
		return nil, &NotFoundError{Title: title, Reason: "matched publication has no English title"}
	}
	if pub.PublishedURL == "" {
		return nil, &NotFoundError{Title: title, Reason: "matched submission has no published URL"}
	}
	return pub, nil
}

func (c *Client) match(items []submission, title string) (*Publication, bool) {
	vern, en := c.config.VernacularLocale, c.config.EnglishLocale
	for _, item := range items {
		for _, p := range item.Publications {
			if p.Title[vern] != title {
				continue
			}
			pub := &Publication{
				SubmissionID:    item.ID,
				EnglishTitle:    firstNonEmpty(p.FullTitle[en], p.Title[en]),
				VernacularTitle: firstNonEmpty(p.FullTitle[vern], p.Title[vern]),
				PublishedURL:    item.URLPublished,
			}
			return pub, true
		}
	}
	return nil, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
