package recommend

import "strings"

var uncertaintyPhrases = []string{
	"not sure",
	"unsure",
	"help me choose",
	"help me pick",
	"help me decide",
	"idk",
	"i don't know",
	"i dont know",
	"dont know",
	"don't know what",
	"no idea",
	"anything",
	"whatever",
	"can't decide",
	"cant decide",
	"confused",
	"recommend something",
	"suggest something",
	"what should i",
	"surprise me",
	"you choose",
	"you pick",
}

var newGenresPhrases = []string{
	"show me other genres",
	"other genres",
	"different genres",
	"different genre",
	"another genre",
	"something else",
	"something different",
	"more genres",
	"new genres",
	"other options",
	"other choices",
	"none of these",
}

var botInvitationPhrases = []string{
	"would you like to see",
	"would you like to explore",
	"can help you find",
	"what kind of",
	"which genre",
	"what genre",
	"do you want to explore",
	"are you interested in",
	"let me know what you like",
}

// replies that only mean "unsure" right after the bot offered a choice
var invitationReplies = []string{
	"no",
	"nope",
	"not really",
	"maybe",
	"hmm",
	"um",
	"dunno",
	"i guess",
}

var predefinedUncertainQuestions = []string{
	"I don't know what to read",
	"Help me pick a genre",
	"What should I watch?",
	"Show me something new",
}

// mobile keyboards send typographic apostrophes
var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'")

func normalize(text string) string {
	return strings.ToLower(apostrophes.Replace(text))
}

func containsAny(text string, phrases []string) bool {
	lower := normalize(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// DetectUserUncertainty reports whether the message says the child does not know what to ask for
func DetectUserUncertainty(msg string) bool {
	return containsAny(msg, uncertaintyPhrases)
}

// DetectNewGenresRequest reports whether the child explicitly asks for different genres
func DetectNewGenresRequest(msg string) bool {
	return containsAny(msg, newGenresPhrases)
}

// DetectBotInvitation reports whether the assistant's message invited the child to choose
func DetectBotInvitation(botMsg string) bool {
	return containsAny(botMsg, botInvitationPhrases)
}

// IsPredefinedUncertainQuestion matches the UI button questions exactly, ignoring outer whitespace
func IsPredefinedUncertainQuestion(q string) bool {
	q = strings.TrimSpace(q)
	for _, p := range predefinedUncertainQuestions {
		if q == p {
			return true
		}
	}
	return false
}

// PredefinedQuestions returns the button questions offered by the client
func PredefinedQuestions() []string {
	out := make([]string, len(predefinedUncertainQuestions))
	copy(out, predefinedUncertainQuestions)
	return out
}

func isInvitationReply(msg string) bool {
	m := normalize(strings.TrimSpace(msg))
	m = strings.TrimRight(m, ".!?… ")
	for _, r := range invitationReplies {
		if m == r {
			return true
		}
	}
	return false
}
