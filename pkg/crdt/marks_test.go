package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownToMarksBold(t *testing.T) {
	text, marks := MarkdownToMarks("hello **world** now")
	assert.Equal(t, "hello world now", text)
	expected := []Mark{{Type: MarkBold, Start: 6, End: 11}}
	assert.Equal(t, expected, marks)
}

func TestMarkdownRoundTripBold(t *testing.T) {
	original := "hello **world** now"
	text, marks := MarkdownToMarks(original)
	back := MarksToMarkdown(text, marks)
	assert.Equal(t, original, back)
}

func TestMarkdownRoundTripLink(t *testing.T) {
	original := "see [the docs](https://example.com/docs) for more"
	text, marks := MarkdownToMarks(original)
	back := MarksToMarkdown(text, marks)
	assert.Equal(t, original, back)
}

func TestMarkdownRoundTripWikiLinkAndCode(t *testing.T) {
	original := "refer to [[Elenya]] and run `go test`"
	text, marks := MarkdownToMarks(original)
	back := MarksToMarkdown(text, marks)
	assert.Equal(t, original, back)
}

func TestMarkdownPreservesBlockPrefix(t *testing.T) {
	original := "# Chapter One\n\nSome **bold** text."
	text, _ := MarkdownToMarks(original)
	assert.Contains(t, text, "# Chapter One")
}
