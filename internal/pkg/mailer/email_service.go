package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type LimitReachedNotice struct {
	ToEmail    string
	FullName   string
	PlanName   string
	Limit      int
	ResetsAt   string
	UpgradeURL string
}

type IEmailService interface {
	SendLimitReached(notice LimitReachedNotice) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendLimitReached(notice LimitReachedNotice) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", notice.ToEmail)
	m.SetHeader("Subject", "Your chatbots reached this month's message limit")
	m.SetBody("text/html", limitReachedBody(notice))

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send limit notice to %s: %v\n", notice.ToEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Limit notice sent to %s\n", notice.ToEmail)
	return nil
}

func limitReachedBody(notice LimitReachedNotice) string {
	name := notice.FullName
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Hi %s,</h2>
			<p>Your chatbots have used all <strong>%d</strong> messages included in the <strong>%s</strong> plan this month.</p>
			<p>Visitors will not get replies until your quota resets on %s.</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Upgrade Plan</a>
		</div>
	`, html.EscapeString(name), notice.Limit, html.EscapeString(notice.PlanName),
		html.EscapeString(notice.ResetsAt), html.EscapeString(notice.UpgradeURL))
}

type nopEmailService struct{}

// NewNopEmailService is used when SMTP is not configured.
func NewNopEmailService() IEmailService {
	return nopEmailService{}
}

func (nopEmailService) SendLimitReached(LimitReachedNotice) error { return nil }
