package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"

	"github.com/vnkhanh/prince-music-backend/config"
)

const (
	TemplateEmailVerification   = "emailVerification"
	TemplatePasswordReset       = "passwordReset"
	TemplateEmailUpdate         = "emailUpdate"
	TemplatePhoneUpdate         = "phoneUpdate"
	TemplateMusicianCredentials = "musicianCredentials"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type emailTemplate struct {
	subject string
	html    *template.Template
	text    *texttemplate.Template
}

const layoutHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#f4f4f4;padding:24px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:32px">
<h2 style="color:#333">Prince Music App</h2>
%s
<p style="color:#999;font-size:12px;margin-top:32px">If you did not request this, you can ignore this email.</p>
</div></body></html>`

const otpBlock = `<div style="font-size:32px;letter-spacing:8px;font-weight:bold;text-align:center;padding:16px;background:#f0f0f0;border-radius:4px">{{ .otp }}</div>
<p>This code expires in {{ .expiresIn | default 10 }} minutes.</p>`

var emailSources = map[string]struct {
	subject string
	html    string
	text    string
}{
	TemplateEmailVerification: {
		subject: "Verify Your Email - Prince Music App",
		html: `<p>Hello {{ .firstName | default "there" }},</p>
<p>Welcome to Prince Music App! Use the code below to verify your email address.</p>` + otpBlock,
		text: "Hello {{ .firstName | default \"there\" }},\n\nYour verification code is {{ .otp }}. It expires in {{ .expiresIn | default 10 }} minutes.\n",
	},
	TemplatePasswordReset: {
		subject: "Password Reset - Prince Music App",
		html: `<p>Hello {{ .firstName | default "there" }},</p>
<p>We received a request to reset your password. Use the code below to continue.</p>` + otpBlock,
		text: "Hello {{ .firstName | default \"there\" }},\n\nYour password reset code is {{ .otp }}. It expires in {{ .expiresIn | default 10 }} minutes.\n",
	},
	TemplateEmailUpdate: {
		subject: "Email Update Verification - Prince Music App",
		html: `<p>Hello {{ .firstName | default "there" }},</p>
<p>Use the code below to confirm <strong>{{ .newEmail }}</strong> as your new email address.</p>` + otpBlock,
		text: "Hello {{ .firstName | default \"there\" }},\n\nYour code to confirm {{ .newEmail }} is {{ .otp }}. It expires in {{ .expiresIn | default 10 }} minutes.\n",
	},
	TemplatePhoneUpdate: {
		subject: "Phone Update Verification - Prince Music App",
		html: `<p>Hello {{ .firstName | default "there" }},</p>
<p>Use the code below to confirm <strong>{{ .newPhone }}</strong> as your new phone number.</p>` + otpBlock,
		text: "Hello {{ .firstName | default \"there\" }},\n\nYour code to confirm {{ .newPhone }} is {{ .otp }}. It expires in {{ .expiresIn | default 10 }} minutes.\n",
	},
	TemplateMusicianCredentials: {
		subject: "Your Musician Account - Prince Music App",
		html: `<p>Hello {{ .name | default "Musician" }},</p>
<p>An administrator created a musician account for you.</p>
<ul>
<li>Musician ID: <strong>{{ .musicianId }}</strong></li>
<li>Email: <strong>{{ .email }}</strong></li>
<li>Temporary password: <strong>{{ .password }}</strong></li>
</ul>
<p>Sign in at <a href="{{ .loginUrl }}">{{ .loginUrl }}</a> and change your password.</p>`,
		text: "Hello {{ .name | default \"Musician\" }},\n\nMusician ID: {{ .musicianId }}\nEmail: {{ .email }}\nTemporary password: {{ .password }}\n\nSign in at {{ .loginUrl }}\n",
	},
}

var emailTemplates = mustParseTemplates()

func mustParseTemplates() map[string]emailTemplate {
	out := make(map[string]emailTemplate, len(emailSources))
	for name, src := range emailSources {
		html := template.Must(template.New(name).Funcs(sprig.FuncMap()).
			Parse(fmt.Sprintf(layoutHTML, src.html)))
		text := texttemplate.Must(texttemplate.New(name).Funcs(sprig.TxtFuncMap()).Parse(src.text))
		out[name] = emailTemplate{subject: src.subject, html: html, text: text}
	}
	return out
}

// RenderEmail fills the named template for recipient to.
func RenderEmail(name, to string, data map[string]interface{}) (Message, error) {
	tpl, ok := emailTemplates[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}
	var html, text bytes.Buffer
	if err := tpl.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := tpl.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", name, err)
	}
	return Message{To: to, Subject: tpl.subject, HTML: html.String(), Text: text.String()}, nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers through an SMTP relay with PLAIN auth. Without
// credentials every send is a logged no-op.
type SMTPMailer struct {
	cfg      config.SMTPConfig
	logger   *zap.Logger
	sendMail sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, logger: logger, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.User != "" && m.cfg.Pass != ""
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		m.logger.Warn("smtp not configured, email skipped",
			zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := buildMIME(m.cfg.From, msg)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	return nil
}

func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: Prince Music App <%s>\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	parts := []struct{ typ, content string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type": {p.typ + `; charset="UTF-8"`},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(strings.ReplaceAll(p.content, "\n", "\r\n"))); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
