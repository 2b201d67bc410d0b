package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectUserUncertainty(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"I'm not sure what I want", true},
		{"IDK", true},
		{"I don\u2019t know", true},
		{"I CAN\u2019T DECIDE", true},
		{"can you help me choose?", true},
		{"Surprise me!", true},
		{"I want fantasy books", false},
		{"show me dinosaur videos", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectUserUncertainty(tt.msg))
		})
	}
}

func TestDetectNewGenresRequest(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"show me other genres", true},
		{"Can I see DIFFERENT genres please", true},
		{"something else", true},
		{"I want fantasy books", false},
		{"I'm not sure", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectNewGenresRequest(tt.msg))
		})
	}
}

func TestDetectBotInvitation(t *testing.T) {
	assert.True(t, DetectBotInvitation("Would you like to see some adventure books?"))
	assert.True(t, DetectBotInvitation("I can help you find something fun!"))
	assert.False(t, DetectBotInvitation("Here are three books about space."))
}

func TestIsPredefinedUncertainQuestion(t *testing.T) {
	assert.True(t, IsPredefinedUncertainQuestion("Help me pick a genre"))
	assert.True(t, IsPredefinedUncertainQuestion("  What should I watch?  "))
	assert.False(t, IsPredefinedUncertainQuestion("help me pick a genre"), "match is exact")
	assert.False(t, IsPredefinedUncertainQuestion("Help me pick a genre today"))
}

func TestPredefinedQuestions_ReturnsCopy(t *testing.T) {
	q := PredefinedQuestions()
	q[0] = "changed"
	assert.NotEqual(t, "changed", PredefinedQuestions()[0])
}

func TestIsInvitationReply(t *testing.T) {
	assert.True(t, isInvitationReply("Nope!"))
	assert.True(t, isInvitationReply(" maybe... "))
	assert.False(t, isInvitationReply("no thanks, I want comics"))
}
