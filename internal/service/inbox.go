package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/connector"
	"mailbridge/backend/internal/domain"
	"mailbridge/backend/internal/gmail"
	"mailbridge/backend/internal/monitoring"
)

// GmailAPI 定义收件箱服务对 Gmail 上游的依赖。
type GmailAPI interface {
	ListMessages(ctx context.Context, accessToken string, maxResults int, query, pageToken string) (*gmail.ListResponse, error)
	GetMessage(ctx context.Context, accessToken, messageID string) (*gmail.RawMessage, error)
}

// FetchInput 一次抓取请求的参数。
type FetchInput struct {
	MaxResults int    // 期望返回的邮件数，0 表示使用默认页大小
	Query      string // Gmail 搜索语法，原样透传
	PageToken  string // 上一页返回的分页令牌，空表示第一页
}

// FetchResult 一次抓取的结果。
//
// Messages 的顺序与 Gmail 列表接口返回的顺序一致；
// NextPageToken 为 nil 表示没有更多页，序列化为 JSON null。
type FetchResult struct {
	Messages      []domain.Message `json:"messages"`
	NextPageToken *string          `json:"nextPageToken"`
}

// nextPageToken 把上游分页令牌转成响应字段，空串映射为 nil。
func nextPageToken(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}

// InboxService 负责从 Gmail 拉取并归一化邮件。
type InboxService struct {
	client      GmailAPI
	tokens      connector.TokenSource
	concurrency int
	maxPage     int
	defaultPage int
	metrics     *monitoring.Metrics // 可为 nil
	log         *zap.Logger
}

// NewInboxService 创建收件箱服务。
func NewInboxService(cfg *config.GmailConfig, client GmailAPI, tokens connector.TokenSource, metrics *monitoring.Metrics, log *zap.Logger) *InboxService {
	return &InboxService{
		client:      client,
		tokens:      tokens,
		concurrency: cfg.FetchConcurrency,
		maxPage:     cfg.MaxPageSize,
		defaultPage: cfg.DefaultPageSize,
		metrics:     metrics,
		log:         log,
	}
}

// FetchPage 拉取一页邮件并归一化。
//
// 流程：先调列表接口取回一页邮件引用，然后并发抓取每封邮件的
// 完整内容并归一化。结果顺序与列表顺序一致；单封邮件抓取失败
// 只丢弃那一封（记日志和计数），不影响整页。
//
// 用户没有可用令牌时返回 connector.ErrNoToken，在发起任何
// 上游调用之前就失败。
func (s *InboxService) FetchPage(ctx context.Context, userID string, input FetchInput) (*FetchResult, error) {
	accessToken, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = s.defaultPage
	}
	if maxResults > s.maxPage {
		maxResults = s.maxPage
	}

	list, err := s.client.ListMessages(ctx, accessToken, maxResults, input.Query, input.PageToken)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if s.metrics != nil {
		s.metrics.GmailPagesFetched.Inc()
	}

	// 空页直接返回，不发起任何详情请求；
	// 这是终止态，分页令牌一律为 null，不透传上游残留值
	if len(list.Messages) == 0 {
		return &FetchResult{
			Messages:      []domain.Message{},
			NextPageToken: nil,
		}, nil
	}

	// 并发抓取详情，用下标写入固定切片保持列表顺序；
	// 失败的位置留 nil，收尾时过滤掉
	fetched := make([]*domain.Message, len(list.Messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ref := range list.Messages {
		g.Go(func() error {
			raw, err := s.client.GetMessage(gctx, accessToken, ref.ID)
			if err != nil {
				s.log.Warn("message detail fetch failed, dropping",
					zap.String("gmail_id", ref.ID),
					zap.Error(err),
				)
				if s.metrics != nil {
					s.metrics.GmailMessagesDropped.Inc()
				}
				return nil
			}
			msg := gmail.Normalize(raw)
			fetched[i] = &msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch message details: %w", err)
	}

	messages := make([]domain.Message, 0, len(fetched))
	for _, msg := range fetched {
		if msg != nil {
			messages = append(messages, *msg)
		}
	}
	if s.metrics != nil {
		s.metrics.GmailMessagesFetched.Add(float64(len(messages)))
	}

	return &FetchResult{
		Messages:      messages,
		NextPageToken: nextPageToken(list.NextPageToken),
	}, nil
}
