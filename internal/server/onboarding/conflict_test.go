package onboarding

import (
	"testing"

	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestDecideConflict_Table(t *testing.T) {
	const (
		pw     = models.AuthMethodPassword
		google = models.AuthMethodGoogle
		apple  = models.AuthMethodApple
		none   = models.AuthMethodNone
	)

	tests := []struct {
		stored, attempted models.AuthMethod
		verdict           Verdict
		reason            Reason
	}{
		{pw, pw, Allow, ReasonSameMethod},
		{pw, google, Block, ReasonPasswordAccountExists},
		{pw, apple, Block, ReasonPasswordAccountExists},

		{google, pw, Block, ReasonFederatedAccountExists},
		{google, google, Allow, ReasonSameMethod},
		{google, apple, Allow, ReasonCrossProviderUnverified},

		{apple, pw, Block, ReasonFederatedAccountExists},
		{apple, google, Allow, ReasonCrossProviderUnverified},
		{apple, apple, Allow, ReasonSameMethod},

		{none, pw, Allow, ReasonNoStoredMethod},
		{none, google, Allow, ReasonNoStoredMethod},
		{none, apple, Allow, ReasonNoStoredMethod},
		{none, none, Allow, ReasonNoStoredMethod},

		{pw, none, Block, ReasonUnrecognizedMethod},
		{google, none, Block, ReasonUnrecognizedMethod},
	}

	for _, tt := range tests {
		t.Run(string(tt.stored)+"->"+string(tt.attempted), func(t *testing.T) {
			d := DecideConflict(tt.stored, tt.attempted)
			assert.Equal(t, tt.verdict, d.Verdict)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.stored, d.Stored)
			assert.Equal(t, tt.attempted, d.Attempted)
			assert.Equal(t, tt.verdict == Block, d.Blocked())
		})
	}
}

func TestDecideConflict_ExactlyTwoBlockingFamilies(t *testing.T) {
	blocked := 0
	for _, stored := range models.AuthMethods {
		for _, attempted := range models.AuthMethods {
			d := DecideConflict(stored, attempted)
			if d.Blocked() {
				blocked++
				assert.NotEqual(t, stored.IsFederated(), attempted.IsFederated(),
					"only password<->federated pairs may block, got %s->%s", stored, attempted)
			}
			if stored == attempted {
				assert.False(t, d.Blocked())
			}
		}
	}
	assert.Equal(t, 4, blocked, "password->{google,apple} and {google,apple}->password")
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "block", Block.String())
}
