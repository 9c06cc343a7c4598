package util

import (
	"fmt"
	"net/smtp"

	"github.com/ikkim/budongsan-crm/pkg/logger"
)

// MailConfig SMTP 발송 설정
type MailConfig struct {
	Host     string
	Port     string
	From     string
	Password string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends HTML mail over SMTP. Without credentials it only logs the message.
type Mailer struct {
	cfg      MailConfig
	sendMail sendMailFunc
}

func NewMailer(cfg MailConfig) *Mailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &Mailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *Mailer) devMode() bool {
	return m.cfg.From == "" || m.cfg.Password == ""
}

// Send 제목과 HTML 본문으로 메일을 보낸다
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m.devMode() {
		logger.Info("[DEV MODE] 메일 발송 생략", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	}

	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		m.cfg.From, to, subject, htmlBody,
	))

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	if err := m.sendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{to}, message); err != nil {
		logger.Error("Failed to send mail", err, map[string]interface{}{
			"to": to,
		})
		return fmt.Errorf("이메일 전송에 실패했습니다: %w", err)
	}

	logger.Info("Mail sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

// SendVerificationCode 회원가입 이메일 인증 코드 발송
func (m *Mailer) SendVerificationCode(to, code string) error {
	if m.devMode() {
		logger.Info("[DEV MODE] 이메일 인증 코드", map[string]interface{}{
			"to":   to,
			"code": code,
		})
		return nil
	}

	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px;">
		<h1 style="color: #333; margin-bottom: 20px;">이메일 인증</h1>
		<p style="color: #666; line-height: 1.6; margin-bottom: 30px;">
			부동산 CRM 가입을 위해 아래 인증 코드를 입력해주세요.
		</p>
		<div style="background-color: #f8f9fa; padding: 30px; border-radius: 8px; text-align: center; margin-bottom: 30px;">
			<h2 style="color: #333; margin: 0; font-size: 36px; letter-spacing: 4px;">%s</h2>
		</div>
		<p style="color: #999; font-size: 14px;">* 이 인증 코드는 5분 동안 유효합니다.</p>
	</div>
</body>
</html>
`, code)

	return m.Send(to, "[부동산 CRM] 이메일 인증 코드", body)
}
