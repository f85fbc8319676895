package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// Config holds mail provider settings.
type Config struct {
	Enable    bool   `json:"enable"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Pass      string `json:"pass"`
	From      string `json:"from"`
	ReplyTo   string `json:"reply_to"`
	UseResend bool   `json:"use_resend"`
	ResendKey string `json:"resend_key"`
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender sends emails via SMTP or Resend.
type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if s.cfg.UseResend && s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

func (s *Sender) sendSMTP(msg Message) error {
	host := s.cfg.Host
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if s.cfg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", s.cfg.ReplyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, host)
	return smtp.SendMail(addr, auth, from, msg.To, body.Bytes())
}

func (s *Sender) sendResend(msg Message) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"from":    from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	})

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}

const enrollmentTpl = `<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;line-height:1.6;color:#333;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto">
  <div style="background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:white;padding:30px;text-align:center;border-radius:10px 10px 0 0">
    <h1>Welcome Aboard!</h1>
  </div>
  <div style="background:#f9fafb;padding:30px;border-radius:0 0 10px 10px">
    <p>Hi {{.UserName}},</p>
    <p>You are now enrolled in:</p>
    <div style="background:white;padding:20px;border-radius:5px;margin:20px 0">
      <h2 style="margin-top:0">{{.CourseName}}</h2>
    </div>
    <a href="{{.CourseURL}}" style="display:inline-block;background:#667eea;color:white;padding:12px 30px;text-decoration:none;border-radius:5px;margin:20px 0">Start Learning</a>
    <p style="text-align:center;margin-top:30px;color:#666;font-size:12px">This email was sent automatically, please do not reply.</p>
  </div>
</div>
</body>
</html>`

const activityNotifyTpl = `<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;line-height:1.6;color:#333;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">{{.Heading}}</h2>
  <p><strong>{{.ActorName}}</strong> {{.Action}} on <strong>{{.LessonTitle}}</strong>:</p>
  <div style="background:#f3f4f6;border-radius:8px;padding:4px 16px;margin:16px 0">
    <p style="font-size:13px;color:#333">{{.Content}}</p>
  </div>
  <p style="margin-top:24px">
    <a href="{{.ThreadURL}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">View thread</a>
  </p>
  <p style="color:#999;font-size:12px">This email was sent automatically, please do not reply.</p>
</div>
</body>
</html>`

// EnrollmentData fills the enrollment confirmation template.
type EnrollmentData struct {
	UserName   string
	CourseName string
	CourseURL  string
}

// ActivityData fills the comment-activity notification template.
type ActivityData struct {
	Heading     string
	ActorName   string
	Action      string
	LessonTitle string
	Content     string
	ThreadURL   string
}

// SendEnrollmentConfirm emails a learner after a successful enrollment.
func (s *Sender) SendEnrollmentConfirm(to string, data EnrollmentData) error {
	html, err := renderTemplate("enrollment", enrollmentTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: fmt.Sprintf("You're enrolled in %s", data.CourseName),
		HTML:    html,
	})
}

// SendActivityNotify emails a user about a reply or mention on a comment.
func (s *Sender) SendActivityNotify(to string, data ActivityData) error {
	html, err := renderTemplate("activity", activityNotifyTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: data.Heading,
		HTML:    html,
	})
}

func renderTemplate(name, tpl string, data interface{}) (string, error) {
	t, err := template.New(name).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
