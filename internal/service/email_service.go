package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmailSender delivers the referral and milestone mails. Callers must tolerate
// a nil sender; email is optional everywhere it is used.
type EmailSender interface {
	SendReferralEmail(toEmail, referrerName, code, link string) error
	SendMilestoneEmail(toEmail, name, milestoneLabel string, bonus int64) error
}

// HTTPEmailSender posts mail to a transactional-email HTTP API.
type HTTPEmailSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewHTTPEmailSender creates the sender. Returns nil when no endpoint is
// configured, matching the optional-collaborator pattern used for FCM.
func NewHTTPEmailSender(endpoint, apiKey, from string) *HTTPEmailSender {
	if endpoint == "" {
		return nil
	}
	return &HTTPEmailSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPEmailSender) send(to, subject, html string) error {
	payload := map[string]interface{}{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email api returned %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPEmailSender) SendReferralEmail(toEmail, referrerName, code, link string) error {
	subject := fmt.Sprintf("%s invited you to Crumble", referrerName)
	html := fmt.Sprintf(
		"<p>%s sent you a treat! Use code <b>%s</b> on your first order and you both earn a wallet bonus once it's delivered.</p><p><a href=%q>Order now</a></p>",
		referrerName, code, link)
	return s.send(toEmail, subject, html)
}

func (s *HTTPEmailSender) SendMilestoneEmail(toEmail, name, milestoneLabel string, bonus int64) error {
	subject := fmt.Sprintf("You reached %s!", milestoneLabel)
	html := fmt.Sprintf(
		"<p>Hi %s, your referrals just unlocked the <b>%s</b> milestone. ₹%d has been added to your wallet.</p>",
		name, milestoneLabel, bonus)
	return s.send(toEmail, subject, html)
}
