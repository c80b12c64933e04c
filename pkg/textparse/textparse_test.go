package textparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ustbian/backend/pkg/textparse"
)

func TestExtractMentions(t *testing.T) {
	got := textparse.ExtractMentions("hi @bob and @alice, @bob again")
	assert.ElementsMatch(t, []string{"bob", "alice"}, got)
}

func TestExtractMentionsNone(t *testing.T) {
	assert.Empty(t, textparse.ExtractMentions("no mentions here"))
	assert.Empty(t, textparse.ExtractMentions(""))
}

func TestExtractMentionsUnderscoreAndDigits(t *testing.T) {
	got := textparse.ExtractMentions("ping @user_1 and @2cool")
	assert.ElementsMatch(t, []string{"user_1", "2cool"}, got)
}

func TestExtractMentionsStopsAtNonWordChar(t *testing.T) {
	got := textparse.ExtractMentions("hey @bob! and @alice.smith")
	assert.ElementsMatch(t, []string{"bob", "alice"}, got)
}

func TestExtractHashtags(t *testing.T) {
	got := textparse.ExtractHashtags("Studying for #Finals week #finals #GoLang")
	assert.ElementsMatch(t, []string{"finals", "golang"}, got)
}

func TestAddedMentions(t *testing.T) {
	got := textparse.AddedMentions("hello @bob", "hello @bob @alice")
	assert.ElementsMatch(t, []string{"alice"}, got)
}

func TestRemovedMentions(t *testing.T) {
	got := textparse.RemovedMentions("hello @bob @alice", "hello @bob")
	assert.ElementsMatch(t, []string{"alice"}, got)
}

func TestMentionDiffUnchanged(t *testing.T) {
	assert.Empty(t, textparse.AddedMentions("@bob hi", "@bob bye"))
	assert.Empty(t, textparse.RemovedMentions("@bob hi", "@bob bye"))
}
