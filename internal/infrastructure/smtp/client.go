package smtp

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"

	"medication-service/internal/config"

	"gopkg.in/gomail.v2"
)

// Client sends caregiver alert emails over SMTP
type Client struct {
	cfg      *config.SMTPConfig
	template *template.Template
}

// NewClient creates a new SMTP client
func NewClient(cfg *config.SMTPConfig) (*Client, error) {
	tmpl, err := template.New("missed_dose").Parse(missedDoseTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse missed dose template: %w", err)
	}

	return &Client{cfg: cfg, template: tmpl}, nil
}

// MissedDoseData contains data for the missed dose alert email
type MissedDoseData struct {
	UserID        string
	MedicineName  string
	Dosage        string
	ScheduledTime string
}

// SendMissedDoseAlert sends a missed dose alert to the given address
func (c *Client) SendMissedDoseAlert(to string, data MissedDoseData) error {
	var body bytes.Buffer
	if err := c.template.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render missed dose email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(c.cfg.FromEmail, c.cfg.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Missed dose: %s", data.MedicineName))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(c.cfg.Host, c.cfg.Port, c.cfg.Username, c.cfg.Password)
	if c.cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: c.cfg.Host}
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send missed dose alert: %w", err)
	}

	return nil
}

const missedDoseTemplate = `
<html>
  <body style="font-family: sans-serif; color: #333;">
    <h2>Missed medication</h2>
    <p>
      The dose of <strong>{{.MedicineName}} {{.Dosage}}</strong> scheduled at
      <strong>{{.ScheduledTime}}</strong> was not confirmed and has been
      marked as missed.
    </p>
    <p>You may want to check in with the patient.</p>
  </body>
</html>
`
