package mail

import (
	"log"

	gomail "gopkg.in/gomail.v2"

	"github.com/example/goshop/internal/config"
)

// Mailer 对外只有一个发送动作，失败不重试，由调用方决定怎么提示用户
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer 通过 SMTP 发送
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer 创建 SMTP 发送器
func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// LogMailer 未配置 SMTP 时的降级实现，只打日志
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail (log only) to=%s subject=%q\n%s", to, subject, body)
	return nil
}

// New 根据配置选择实现
func New(cfg *config.SMTPConfig) Mailer {
	if cfg == nil || cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}
