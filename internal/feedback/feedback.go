// Package feedback validates user feedback, archives it locally and relays
// it by e-mail.
package feedback

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fjod/shopnest/internal/domain"
)

const (
	MaxMessageLength = 5000
	MaxSubjectLength = 200
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRelayed Status = "relayed"
	StatusFailed  Status = "failed"
)

type Submission struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Normalize trims the user-entered fields.
func (s *Submission) Normalize() {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)
}

func (s Submission) Validate() error {
	if s.Message == "" {
		return domain.Invalid("message", "Please share your thoughts with us.")
	}
	if utf8.RuneCountInString(s.Message) > MaxMessageLength {
		return domain.Invalid("message", fmt.Sprintf("Message must be at most %d characters.", MaxMessageLength))
	}
	if utf8.RuneCountInString(s.Subject) > MaxSubjectLength {
		return domain.Invalid("subject", fmt.Sprintf("Subject must be at most %d characters.", MaxSubjectLength))
	}
	if s.Email != "" && !domain.ValidEmail(s.Email) {
		return domain.Invalid("email", "Invalid email address.")
	}
	return nil
}
