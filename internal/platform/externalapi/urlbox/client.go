package urlbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fxchart_bot/internal/feature/conversion/domain"
	"fxchart_bot/internal/feature/conversion/domain/entity"
	"fxchart_bot/internal/feature/conversion/usecase"
	"fxchart_bot/internal/platform/externalapi/urlbox/dto"
	"fxchart_bot/internal/shared/ratelimiter"
)

// maxBodySize caps a downloaded screenshot or page (Telegram photo limit is 10MB).
const maxBodySize = 10 * 1024 * 1024

// errBodyTooLarge は応答本文が上限を超えた場合のエラーです。
var errBodyTooLarge = errors.New("response body too large")

// Client はURLBox APIでページをレンダリングし、画像とHTMLを取得するRenderer実装です。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.Limiter
	maxBody int64
}

// ClientがRendererとImageFetcherを実装していることをコンパイル時に検証します。
var (
	_ usecase.Renderer     = (*Client)(nil)
	_ usecase.ImageFetcher = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
// limiter が nil の場合、レンダリング呼び出しは制限されません。
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.Limiter) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{cfg: cfg, client: client, limiter: limiter, maxBody: maxBodySize}
}

// Render asks URLBox for a screenshot of req.URL and returns the image locator
// together with the raw HTML of the rendered page.
func (c *Client) Render(ctx context.Context, req entity.RenderRequest) (entity.PageFetch, error) {
	if req.URL == "" {
		return entity.PageFetch{}, fmt.Errorf("%w: url cannot be empty", domain.ErrExternalFetch)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return entity.PageFetch{}, err
		}
	}

	endpoint := c.renderEndpoint(req)
	slog.Info("fetching urlbox screenshot",
		"url", req.URL, "width", req.Width, "height", req.Height, "scroll_to", req.Scroll)

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return entity.PageFetch{}, fmt.Errorf("%w: urlbox request: %w", domain.ErrExternalFetch, err)
	}
	if status != http.StatusOK {
		slog.Error("urlbox api error", "status", status, "response", truncate(string(body), 500))
		return entity.PageFetch{}, fmt.Errorf("%w: urlbox http %d", domain.ErrExternalFetch, status)
	}

	var info dto.RenderResponse
	if err := json.Unmarshal(body, &info); err != nil {
		slog.Error("invalid json from urlbox", "error", err, "response", truncate(string(body), 500))
		return entity.PageFetch{}, fmt.Errorf("%w: invalid json response from urlbox: %w", domain.ErrExternalFetch, err)
	}
	if info.Error != nil {
		return entity.PageFetch{}, fmt.Errorf("%w: urlbox: %s", domain.ErrExternalFetch, info.Error.Message)
	}
	if info.RenderURL == "" || info.HTMLURL == "" {
		return entity.PageFetch{}, fmt.Errorf("%w: missing render url or html url in response", domain.ErrExternalFetch)
	}

	html, status, err := c.get(ctx, info.HTMLURL)
	if err != nil {
		return entity.PageFetch{}, fmt.Errorf("%w: fetch html: %w", domain.ErrExternalFetch, err)
	}
	if status != http.StatusOK {
		slog.Error("html fetch failed", "status", status, "response", truncate(string(html), 500))
		return entity.PageFetch{}, fmt.Errorf("%w: failed to get html data: status %d", domain.ErrExternalFetch, status)
	}
	if len(html) == 0 {
		return entity.PageFetch{}, fmt.Errorf("%w: empty html response received", domain.ErrExternalFetch)
	}

	slog.Info("fetched urlbox page", "render_url", info.RenderURL, "html_length", len(html))
	return entity.PageFetch{ImageLocator: info.RenderURL, RawText: string(html)}, nil
}

// FetchImage downloads the rendered image with a plain GET.
func (c *Client) FetchImage(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, fmt.Errorf("%w: empty image locator", domain.ErrExternalFetch)
	}
	body, status, err := c.get(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: download image: %w", domain.ErrExternalFetch, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: status %d", domain.ErrExternalFetch, status)
	}
	return body, nil
}

// renderEndpoint builds the URLBox render URL for req.
func (c *Client) renderEndpoint(req entity.RenderRequest) string {
	q := url.Values{}
	q.Set("url", req.URL)
	q.Set("width", strconv.Itoa(req.Width))
	q.Set("height", strconv.Itoa(req.Height))
	q.Set("scroll_to", req.Scroll)
	q.Set("block_ads", "true")
	q.Set("save_html", "true")
	q.Set("force", "true")
	q.Set("response_type", "json")
	q.Set("user_agent", "random")

	return fmt.Sprintf("%s/%s/png?%s", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.APIKey), q.Encode())
}

// get performs a GET request and returns the body and status code.
// A body larger than c.maxBody is an error, never a truncated success.
// Returned errors never contain u, since the render endpoint carries the API key in its path.
func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, stripURL(err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, 0, stripURL(err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, res.StatusCode, stripURL(err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, res.StatusCode, fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, c.maxBody)
	}
	return body, res.StatusCode, nil
}

// stripURL drops the request URL from *url.Error and keeps the underlying cause.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request failed: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
