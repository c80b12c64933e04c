// Package textparse extracts @mention and #hashtag tokens from post
// content. Extraction is purely lexical: usernames are not checked for
// existence here, that happens when the caller resolves them against
// the user table.
package textparse

import (
	"regexp"
	"strings"
)

var (
	mentionPattern = regexp.MustCompile(`@(\w+)`)
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
)

// ExtractMentions returns the de-duplicated usernames mentioned in text.
// Order is not guaranteed.
func ExtractMentions(text string) []string {
	seen := make(map[string]bool)
	var mentions []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			mentions = append(mentions, m[1])
		}
	}
	return mentions
}

// ExtractHashtags returns the de-duplicated, lowercased hashtags in text.
func ExtractHashtags(text string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// AddedMentions returns usernames mentioned in newText but not in oldText.
func AddedMentions(oldText, newText string) []string {
	return diff(ExtractMentions(newText), ExtractMentions(oldText))
}

// RemovedMentions returns usernames mentioned in oldText but not in newText.
func RemovedMentions(oldText, newText string) []string {
	return diff(ExtractMentions(oldText), ExtractMentions(newText))
}

// diff returns the elements of a that are not in b.
func diff(a, b []string) []string {
	exclude := make(map[string]bool, len(b))
	for _, s := range b {
		exclude[s] = true
	}
	var out []string
	for _, s := range a {
		if !exclude[s] {
			out = append(out, s)
		}
	}
	return out
}
