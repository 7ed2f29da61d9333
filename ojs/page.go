package ojs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Dublin Core meta tags published by OJS article landing pages.
var (
	descriptionSelector = cascadia.MustCompile(`meta[name="DC.Description"]`)
	subjectSelector     = cascadia.MustCompile(`meta[name="DC.Subject"]`)
)

// FetchAbstract returns the content of the first DC.Description meta tag on
// the article page whose language is English. An absent abstract is not an
// error: the result is "".
func (c *Client) FetchAbstract(ctx context.Context, pageURL string) (string, error) {
	doc, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	for _, n := range descriptionSelector.MatchAll(doc) {
		if !c.isEnglish(n) {
			continue
		}
		if content := strings.TrimSpace(attr(n, "content")); content != "" {
			return content, nil
		}
	}
	return "", nil
}

// FetchSubjectKeywords returns the content of every DC.Subject meta tag on the
// article page, in page order. Empty contents are skipped.
func (c *Client) FetchSubjectKeywords(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	keywords := []string{}
	for _, n := range subjectSelector.MatchAll(doc) {
		if content := strings.TrimSpace(attr(n, "content")); content != "" {
			keywords = append(keywords, content)
		}
	}
	return keywords, nil
}

// fetchPage downloads and parses an article page, at most once per cache TTL.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*html.Node, error) {
	const op = "fetch article page"

	if c.pages != nil {
		if doc, ok := c.pages.Get(pageURL); ok {
			c.logger.Debug().Str("url", pageURL).Msg("article page cache hit")
			return doc, nil
		}
	}

	resp, err := c.httpClient.Get(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transportError(op, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, newUpstreamError(op, pageURL, resp.StatusCode, nil)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxResponseBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, newUpstreamError(op, pageURL, resp.StatusCode, fmt.Errorf("detecting charset: %w", err))
	}
	doc, err := html.Parse(body)
	if err != nil {
		return nil, newUpstreamError(op, pageURL, resp.StatusCode, fmt.Errorf("parsing HTML: %w", err))
	}

	c.logger.Debug().Str("url", pageURL).Int("status", resp.StatusCode).Msg("fetched article page")
	if c.pages != nil {
		c.pages.Add(pageURL, doc)
	}
	return doc, nil
}

// isEnglish reports whether a meta tag's xml:lang or lang attribute names the
// English locale, with or without a region ("en", "en_US", "en-GB").
func (c *Client) isEnglish(n *html.Node) bool {
	want := c.config.EnglishLocale
	for _, key := range []string{"xml:lang", "lang"} {
		v := attr(n, key)
		if v == "" {
			continue
		}
		if strings.EqualFold(v, want) ||
			strings.HasPrefix(strings.ToLower(v), strings.ToLower(want)+"_") ||
			strings.HasPrefix(strings.ToLower(v), strings.ToLower(want)+"-") {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key || (a.Namespace != "" && a.Namespace+":"+a.Key == key) {
			return a.Val
		}
	}
	return ""
}

// transportError converts an HTTPClient failure into an UpstreamError, keeping
// the last status of exhausted retries.
func transportError(op, rawURL string, err error) *UpstreamError {
	var se *statusError
	if errors.As(err, &se) {
		return newUpstreamError(op, rawURL, se.code, err)
	}
	return newUpstreamError(op, rawURL, 0, err)
}
