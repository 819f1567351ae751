package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/craftista/concierge/internal/domain"
)

func activeSession(contents ...string) *domain.ConversationSession {
	sess := &domain.ConversationSession{ID: "s1", ActiveIntent: domain.IntentProjectCreation}
	for _, c := range contents {
		sess.Messages = append(sess.Messages, domain.Message{Role: domain.RoleUser, Content: c})
	}
	return sess
}

func TestShouldOverride_ShortAnswersNeverOverride(t *testing.T) {
	sess := activeSession()

	for _, msg := range []string{
		"yes",
		"my own",
		"ToolX",
		"never mind", // even a switch phrase, at two words, reads as an answer
		"ok sure",
	} {
		assert.False(t, shouldOverride(msg, sess), "%q", msg)
	}
}

func TestShouldOverride_SwitchPhrases(t *testing.T) {
	sess := activeSession()

	for _, msg := range []string{
		"never mind that, show me something else",
		"Forget that, I have a billing question instead",
		"new topic: where are my payouts",
		"Actually, I want to browse woodworking projects",
	} {
		assert.True(t, shouldOverride(msg, sess), "%q", msg)
	}
}

func TestShouldOverride_SwitchPhraseMidSentenceDoesNotCount(t *testing.T) {
	sess := activeSession()

	assert.False(t, shouldOverride("it was hard but never mind the details it is done", sess))
}

func TestShouldOverride_NewURLOverrides(t *testing.T) {
	sess := activeSession("earlier message without links")

	assert.True(t, shouldOverride("can you look at https://example.com/other-thing for me", sess))
}

func TestShouldOverride_SeenURLDoesNotOverride(t *testing.T) {
	url := "https://github.com/maker/loom-controller"
	sess := activeSession("import " + url + " please")

	assert.False(t, shouldOverride("yes use "+url+" as the source", sess))
}

func TestShouldOverride_ShortMessageWithNewURLOverrides(t *testing.T) {
	sess := activeSession()

	// A bare URL is under four words but is a self-contained fresh
	// request, not a clarification answer.
	assert.True(t, shouldOverride("https://example.com/fresh-link", sess))
}

func TestShouldOverride_PlainAnswersStay(t *testing.T) {
	sess := activeSession()

	for _, msg := range []string{
		"my own, built with ToolX",
		"it is a ceramic vase I made last month",
		"I used walnut and a small CNC router for it",
	} {
		assert.False(t, shouldOverride(msg, sess), "%q", msg)
	}
}

func TestKeyLocks_SerializeAndCleanUp(t *testing.T) {
	locks := newKeyLocks()

	unlock := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		u := locks.Lock("a")
		u()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second lock acquired while first held")
	default:
	}

	unlock()
	<-done

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released entries are removed")
}
