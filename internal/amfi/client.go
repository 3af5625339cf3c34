package amfi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/roach88/navsync/internal/fetcher"
	"github.com/roach88/navsync/internal/window"
)

// Client retrieves NAV history reports from the AMFI portal.
type Client struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// NewClient creates a report client against the given endpoint base URL.
func NewClient(f fetcher.Fetcher, baseURL string) *Client {
	return &Client{fetcher: f, baseURL: baseURL}
}

// NAVHistory downloads the raw NAV report covering the given window.
func (c *Client) NAVHistory(ctx context.Context, w window.Window) (string, error) {
	u := fmt.Sprintf("%s?frmdt=%s&todt=%s",
		c.baseURL,
		url.QueryEscape(w.FromParam()),
		url.QueryEscape(w.ToParam()),
	)

	body, err := c.fetcher.Download(ctx, u)
	if err != nil {
		return "", eris.Wrapf(err, "amfi: fetch report %s..%s", w.FromParam(), w.ToParam())
	}

	text, err := fetcher.ReadAll(body)
	if err != nil {
		return "", eris.Wrapf(err, "amfi: read report %s..%s", w.FromParam(), w.ToParam())
	}

	zap.L().Debug("report downloaded",
		zap.String("from", w.FromParam()),
		zap.String("to", w.ToParam()),
		zap.Int("bytes", len(text)),
	)
	return text, nil
}
