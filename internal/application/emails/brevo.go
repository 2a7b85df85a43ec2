package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails (welcome, mint notification). Nil = no-op.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
	SendMintNotification(ctx context.Context, toEmail, firstName string, amount float64) error
}

// BrevoClient sends emails via Brevo API. Configured with BREVO_API_KEY and
// MAIL_FROM; an empty API key makes every send a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@bluecarbon.ledger"
}

// send sends one email via Brevo API.
func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "BlueCarbon Ledger"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome sends the welcome email after account creation.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, firstName string) error {
	if c.APIKey == "" {
		return nil
	}
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to BlueCarbon Ledger!", EmailLayout(welcomeContent(firstName)))
}

// SendMintNotification tells a community submitter their field data passed
// final confirmation and credits were issued.
func (c *BrevoClient) SendMintNotification(ctx context.Context, toEmail, firstName string, amount float64) error {
	if c.APIKey == "" {
		return nil
	}
	if firstName == "" {
		firstName = "there"
	}
	return c.send(ctx, toEmail, "Your Blue Carbon Credits Have Been Issued", EmailLayout(mintContent(firstName, amount)))
}

func welcomeContent(firstName string) string {
	return fmt.Sprintf(`
    <h1>Welcome aboard, %s!</h1>
    <p>Your <strong>BlueCarbon Ledger</strong> account has been created. You are now part of a registry dedicated to transparent, field-verified coastal carbon restoration.</p>
    <p>Log in to submit restoration evidence, track verification progress, or browse issued credits.</p>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact support immediately.
    </p>
    <p>— The BlueCarbon Ledger Team</p>
`, EscapeHTML(firstName))
}

func mintContent(firstName string, amount float64) string {
	return fmt.Sprintf(`
    <h1>Credits Issued</h1>
    <p>Hi %s,</p>
    <p>Great news: your restoration submission passed final confirmation and <strong>%.2f tCO2e</strong> of blue carbon credits have been minted to the registry ledger in your name.</p>
    <p>Proceeds from any future sale of these credits will be credited to your earnings balance automatically.</p>
    <p>— The BlueCarbon Ledger Team</p>
`, EscapeHTML(firstName), amount)
}
