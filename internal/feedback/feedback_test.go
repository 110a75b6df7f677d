package feedback

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopnest/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		sub   Submission
		field string
	}{
		{name: "valid", sub: Submission{Message: "Great site"}},
		{name: "valid with email", sub: Submission{Message: "hi", Email: "a@b.co", Subject: "Hello"}},
		{name: "empty message", sub: Submission{Message: ""}, field: "message"},
		{name: "long message", sub: Submission{Message: strings.Repeat("x", MaxMessageLength+1)}, field: "message"},
		{name: "long subject", sub: Submission{Message: "m", Subject: strings.Repeat("s", MaxSubjectLength+1)}, field: "subject"},
		{name: "bad email", sub: Submission{Message: "m", Email: "not-an-email"}, field: "email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sub.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNormalize(t *testing.T) {
	s := Submission{Email: " Ann@Example.COM ", Subject: "  Hi ", Message: "\n text \t"}
	s.Normalize()
	assert.Equal(t, "ann@example.com", s.Email)
	assert.Equal(t, "Hi", s.Subject)
	assert.Equal(t, "text", s.Message)
}

func TestValidate_CountsRunesNotBytes(t *testing.T) {
	s := Submission{Message: strings.Repeat("é", MaxMessageLength)}
	assert.NoError(t, s.Validate())
}
