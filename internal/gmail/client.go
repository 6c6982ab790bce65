package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/monitoring"
)

// UpstreamError 表示 Gmail API 返回了非 2xx 状态码。
//
// Body 保留上游响应原文，便于把 Google 的错误说明透传给调用方。
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gmail api error: status %d: %s", e.StatusCode, e.Body)
}

// Client 封装对 Gmail REST API 的出站访问。
//
// 列表与详情请求共享同一个限速器和 HTTP 连接池；
// 访问令牌按请求传入，客户端自身不缓存任何凭证。
type Client struct {
	apiBase    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *monitoring.Metrics // 可为 nil
	log        *zap.Logger
}

// NewClient 创建 Gmail API 客户端。
func NewClient(cfg *config.GmailConfig, metrics *monitoring.Metrics, log *zap.Logger) *Client {
	return &Client{
		apiBase: cfg.APIBase,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)),
		metrics: metrics,
		log:     log,
	}
}

// ListMessages 调用列表接口，返回一页邮件引用。
//
// query 原样透传为 Gmail 搜索语法，pageToken 为空时拉取第一页。
func (c *Client) ListMessages(ctx context.Context, accessToken string, maxResults int, query, pageToken string) (*ListResponse, error) {
	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(maxResults))
	if query != "" {
		params.Set("q", query)
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	endpoint := fmt.Sprintf("%s/users/me/messages?%s", c.apiBase, params.Encode())

	var resp ListResponse
	if err := c.get(ctx, accessToken, endpoint, "list", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMessage 调用详情接口，返回一封邮件的完整 MIME 表示。
func (c *Client) GetMessage(ctx context.Context, accessToken, messageID string) (*RawMessage, error) {
	endpoint := fmt.Sprintf("%s/users/me/messages/%s?format=full", c.apiBase, url.PathEscape(messageID))

	var msg RawMessage
	if err := c.get(ctx, accessToken, endpoint, "get", &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// get 执行一次带 Bearer 认证的 GET 请求并解码 JSON 响应。
//
// 非 2xx 状态码返回 *UpstreamError；不做任何重试。
// operation 只用作指标标签（"list" / "get"）。
func (c *Client) get(ctx context.Context, accessToken, endpoint, operation string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gmail api request: %w", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordGmailCall(operation, time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.metrics != nil {
			c.metrics.GmailUpstreamErrors.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Debug("gmail api non-2xx response",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", endpoint),
		)
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gmail response: %w", err)
	}
	return nil
}
