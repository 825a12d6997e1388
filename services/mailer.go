package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer delivers plain notification emails.
type Mailer interface {
	Send(address, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
}

func (s *SMTPMailer) Send(address, subject, body string) error {
	m := gomail.NewMessage()
	from := s.From
	if from == "" {
		from = s.User
	}
	m.SetHeader("From", fmt.Sprintf("%s <%s>", "ParentPlanner", from))
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Server, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", address, err)
	}
	return nil
}

// NoMail drops every message. It is used when SMTP isn't configured.
type NoMail struct{}

func (NoMail) Send(string, string, string) error {
	return nil
}
