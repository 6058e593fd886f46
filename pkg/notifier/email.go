// 文件: pkg/notifier/email.go
// 邮件渠道 - 按发件人域名自动选择 SMTP 主机/端口/加密方式
//
// 教师仓库与参考包均未引入第三方 SMTP 客户端，按 DESIGN.md 记录的判断，
// 这里用标准库 net/smtp：邮件收发协议本身没有值得引入额外依赖的复杂度，
// go-retryablehttp 之类的 HTTP 封装在这里也用不上。

package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

type smtpHost struct {
	Host     string
	Port     int
	TLS      bool
	STARTTLS bool
}

// smtpHostTable maps a sender-domain suffix to its known SMTP endpoint.
var smtpHostTable = map[string]smtpHost{
	"qq.com":      {Host: "smtp.qq.com", Port: 465, TLS: true},
	"163.com":     {Host: "smtp.163.com", Port: 465, TLS: true},
	"126.com":     {Host: "smtp.126.com", Port: 465, TLS: true},
	"gmail.com":   {Host: "smtp.gmail.com", Port: 587, STARTTLS: true},
	"outlook.com": {Host: "smtp.office365.com", Port: 587, STARTTLS: true},
}

func resolveSMTPHost(fromAddress string) smtpHost {
	domain := domainOf(fromAddress)
	if h, ok := smtpHostTable[domain]; ok {
		return h
	}
	return smtpHost{Host: fmt.Sprintf("smtp.%s", domain), Port: 465, TLS: true}
}

func domainOf(address string) string {
	idx := strings.LastIndex(address, "@")
	if idx < 0 {
		return address
	}
	return address[idx+1:]
}

// EmailChannel sends the report as a plain-text UTF-8 email over SMTP,
// auto-selecting TLS or STARTTLS per the sender-domain host table.
type EmailChannel struct {
	From      string
	To        string
	Username  string
	Password  string
	MaxBytesN int
}

// NewEmailChannel builds an SMTP email channel.
func NewEmailChannel(from, to, username, password string, maxBytes int) *EmailChannel {
	return &EmailChannel{From: from, To: to, Username: username, Password: password, MaxBytesN: maxBytes}
}

func (c *EmailChannel) Name() string  { return "email" }
func (c *EmailChannel) MaxBytes() int { return c.MaxBytesN }

func (c *EmailChannel) Send(ctx context.Context, report Report) error {
	host := resolveSMTPHost(c.From)
	addr := fmt.Sprintf("%s:%d", host.Host, host.Port)

	body := truncateUTF8(report.Body, c.MaxBytesN)
	msg := buildMIMEMessage(c.From, c.To, "A股自选股智能分析报告", body)

	auth := smtp.PlainAuth("", c.Username, c.Password, host.Host)

	if host.TLS {
		return sendTLS(addr, host.Host, auth, c.From, []string{c.To}, msg)
	}
	return smtp.SendMail(addr, auth, c.From, []string{c.To}, msg)
}

func sendTLS(addr, serverName string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: serverName})
	if err != nil {
		return fmt.Errorf("notifier: tls dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, serverName)
	if err != nil {
		return fmt.Errorf("notifier: smtp client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("notifier: smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("notifier: smtp mail from: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("notifier: smtp rcpt to: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("notifier: smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("notifier: smtp write: %w", err)
	}
	return w.Close()
}

func buildMIMEMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
