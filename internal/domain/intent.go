package domain

import "strings"

// Intent is the classified category of a user message. It determines which
// agent handles the turn. Routing only ever sees values from the closed set
// below; anything else is normalized to the fallback before dispatch.
type Intent string

const (
	// IntentNone marks the absence of an intent (no active agent).
	IntentNone Intent = ""

	IntentDiscovery       Intent = "discovery"
	IntentProjectCreation Intent = "project-creation"
	IntentImageGeneration Intent = "image-generation"
	IntentSupport         Intent = "support"
	IntentLearning        Intent = "learning"
)

// FallbackIntent is used when classification fails or produces a label
// outside the closed set. Intent is never left unresolved.
const FallbackIntent = IntentSupport

// AllIntents lists every routable intent.
var AllIntents = []Intent{
	IntentDiscovery,
	IntentProjectCreation,
	IntentImageGeneration,
	IntentSupport,
	IntentLearning,
}

// Valid reports whether i is a member of the closed intent set.
// IntentNone is not a routable intent and is not valid.
func (i Intent) Valid() bool {
	switch i {
	case IntentDiscovery, IntentProjectCreation, IntentImageGeneration, IntentSupport, IntentLearning:
		return true
	}
	return false
}

func (i Intent) String() string { return string(i) }

// ParseIntent normalizes a free-form label to a member of the intent set.
// Accepts common spelling variants the classifier backend has been seen to
// produce (underscores, spaces, bare verbs).
func ParseIntent(s string) (Intent, bool) {
	label := strings.ToLower(strings.TrimSpace(s))
	label = strings.Trim(label, `"'.,:`)
	label = strings.ReplaceAll(label, "_", "-")
	label = strings.ReplaceAll(label, " ", "-")

	switch label {
	case "discovery", "discover", "browse":
		return IntentDiscovery, true
	case "project-creation", "project", "create-project", "creation":
		return IntentProjectCreation, true
	case "image-generation", "image", "generate-image":
		return IntentImageGeneration, true
	case "support", "help":
		return IntentSupport, true
	case "learning", "learn", "tutorial":
		return IntentLearning, true
	}
	return IntentNone, false
}
