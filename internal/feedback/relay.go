package feedback

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridHost = "https://api.sendgrid.com"

// Relay forwards a submission to the team inbox.
type Relay interface {
	Relay(ctx context.Context, s Submission) error
}

type SendGridRelay struct {
	apiKey string
	from   string
	to     string
	host   string
}

func NewSendGridRelay(apiKey, from, to string) *SendGridRelay {
	return &SendGridRelay{apiKey: apiKey, from: from, to: to, host: sendGridHost}
}

func (r *SendGridRelay) Relay(ctx context.Context, s Submission) error {
	if r.apiKey == "" {
		return errors.New("sendgrid api key is empty")
	}
	if r.from == "" || r.to == "" {
		return errors.New("feedback from/to address is empty")
	}

	subject := s.Subject
	if subject == "" {
		subject = "ShopNest feedback"
	}
	body := s.Message
	if s.Email != "" {
		body = fmt.Sprintf("From: %s\n\n%s", s.Email, s.Message)
	}

	message := mail.NewSingleEmail(
		mail.NewEmail("ShopNest", r.from),
		subject,
		mail.NewEmail("", r.to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)
	if s.Email != "" {
		message.SetReplyTo(mail.NewEmail("", s.Email))
	}

	request := sendgrid.GetRequest(r.apiKey, "/v3/mail/send", r.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}
