package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"mailbridge/backend/internal/config"
	"mailbridge/backend/internal/monitoring"
	"mailbridge/backend/internal/pool"
)

// ErrDisabled 表示没有配置 SMTP 服务器，外发通知被禁用。
var ErrDisabled = errors.New("smtp notifications disabled")

// Mailer 通过 SMTP 提交服务器外发通知邮件。
//
// 群发走协程池异步执行，单发是同步调用。
type Mailer struct {
	addr     string
	username string
	password string
	from     string
	workers  *pool.WorkerPool
	metrics  *monitoring.Metrics // 可为 nil
	log      *zap.Logger
}

// NewMailer 创建通知邮件发送器。cfg.Addr 为空时所有发送操作返回 ErrDisabled。
func NewMailer(cfg *config.SMTPConfig, workers *pool.WorkerPool, metrics *monitoring.Metrics, log *zap.Logger) *Mailer {
	return &Mailer{
		addr:     cfg.Addr,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		workers:  workers,
		metrics:  metrics,
		log:      log,
	}
}

// Enabled 返回外发是否已配置。
func (m *Mailer) Enabled() bool {
	return m.addr != ""
}

// Send 同步发送一封通知邮件。
func (m *Mailer) Send(to []string, subject, body string) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := m.buildMessage(to, subject, body)

	var auth sasl.Client
	if m.username != "" {
		auth = sasl.NewPlainClient("", m.username, m.password)
	}

	if err := smtp.SendMail(m.addr, auth, m.from, to, strings.NewReader(msg)); err != nil {
		if m.metrics != nil {
			m.metrics.NotificationsFailed.Inc()
		}
		return fmt.Errorf("send notification mail: %w", err)
	}

	if m.metrics != nil {
		m.metrics.NotificationsSent.Inc()
	}
	m.log.Info("notification mail sent",
		zap.Strings("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// Broadcast 把同一封通知异步发给多个收件人，每个收件人一封。
//
// 返回实际入队的任务数；队列满时剩余收件人被丢弃并记录日志。
func (m *Mailer) Broadcast(to []string, subject, body string) (int, error) {
	if !m.Enabled() {
		return 0, ErrDisabled
	}

	queued := 0
	for _, recipient := range to {
		ok := m.workers.TrySubmit(func() {
			if err := m.Send([]string{recipient}, subject, body); err != nil {
				m.log.Warn("broadcast delivery failed",
					zap.String("to", recipient),
					zap.Error(err),
				)
			}
		})
		if !ok {
			m.log.Warn("notification queue full, dropping recipient",
				zap.String("to", recipient),
			)
			continue
		}
		queued++
	}
	return queued, nil
}

// buildMessage 组装 RFC 5322 格式的纯文本邮件。
func (m *Mailer) buildMessage(to []string, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
