package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/fitfun/competition-system/config"
)

// CompetitionMailer is the slice of EmailService the lifecycle needs
// to announce status changes and congratulate winners. A nil mailer
// disables delivery.
type CompetitionMailer interface {
	SendWinnerEmail(userEmail, competitionName string, place int) error
	SendCompetitionStatusEmail(userEmail, competitionName, status string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if !s.cfg.EmailEnabled() {
		return nil
	}
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("failed to open TLS connection: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		// STARTTLS, usually port 587.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close DATA writer: %w", err)
	}
	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}
	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail, displayName string) error {
	subject := "Welcome to FitFun!"
	data := struct {
		DisplayName string
		AppLink     string
	}{
		DisplayName: displayName,
		AppLink:     s.cfg.PublicURL,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/welcome_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendWinnerEmail(userEmail, competitionName string, place int) error {
	subject := fmt.Sprintf("You placed %s in %s!", ordinal(place), competitionName)
	data := struct {
		CompetitionName string
		Place           string
		Link            string
	}{
		CompetitionName: competitionName,
		Place:           ordinal(place),
		Link:            s.cfg.PublicURL,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/winner_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render winner email: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendCompetitionStatusEmail(userEmail, competitionName, status string) error {
	subject := fmt.Sprintf("Competition %q: %s", competitionName, status)
	data := struct {
		CompetitionName string
		Status          string
		Link            string
	}{
		CompetitionName: competitionName,
		Status:          status,
		Link:            s.cfg.PublicURL,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/competition_status_email.html", data)
	if err != nil {
		return fmt.Errorf("failed to render status email: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}
