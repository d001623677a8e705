package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlainText(t *testing.T) {
	result := Parse("plain text")

	assert.Equal(t, "plain text", result.CleanText)
	assert.False(t, result.ShouldUpdate)
	assert.Empty(t, result.NewContent)
}

func TestParseFullDirective(t *testing.T) {
	result := Parse("Hi! [UPDATE_REPORT:true][NEW_CONTENT:Revised SWOT analysis.][END_UPDATE] More?")

	assert.True(t, result.ShouldUpdate)
	assert.Equal(t, "Revised SWOT analysis.", result.NewContent)
	assert.Equal(t, "Hi!  More?", result.CleanText)
	assert.NotContains(t, result.CleanText, "UPDATE_REPORT")
	assert.NotContains(t, result.CleanText, "NEW_CONTENT")
	assert.NotContains(t, result.CleanText, "END_UPDATE")
}

func TestParseUpdateFalse(t *testing.T) {
	result := Parse("[UPDATE_REPORT:false][NEW_CONTENT:ignored][END_UPDATE] done")

	assert.False(t, result.ShouldUpdate)
	assert.Empty(t, result.NewContent)
	assert.Equal(t, "done", result.CleanText)
}

func TestParseCaseInsensitive(t *testing.T) {
	result := Parse("[update_report:TRUE][new_content:Mixed case works][end_update]")

	assert.True(t, result.ShouldUpdate)
	assert.Equal(t, "Mixed case works", result.NewContent)
	assert.Empty(t, result.CleanText)
}

func TestParseMultilineContent(t *testing.T) {
	raw := "Summary below.\n[UPDATE_REPORT:true][NEW_CONTENT:Line one.\nLine two.\nLine three.][END_UPDATE]"
	result := Parse(raw)

	assert.True(t, result.ShouldUpdate)
	assert.Equal(t, "Line one.\nLine two.\nLine three.", result.NewContent)
	assert.Equal(t, "Summary below.", result.CleanText)
}

func TestParseMissingMarkers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing end marker", "[UPDATE_REPORT:true][NEW_CONTENT:content]"},
		{"missing content marker", "[UPDATE_REPORT:true][END_UPDATE]"},
		{"missing update marker", "[NEW_CONTENT:content][END_UPDATE]"},
		{"only prose", "no markers anywhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.raw)
			assert.False(t, result.ShouldUpdate)
			assert.Empty(t, result.NewContent)
		})
	}
}

func TestParseEmptyContent(t *testing.T) {
	result := Parse("[UPDATE_REPORT:true][NEW_CONTENT:][END_UPDATE]")

	assert.False(t, result.ShouldUpdate, "empty content never triggers an update")
	assert.Empty(t, result.NewContent)

	result = Parse("[UPDATE_REPORT:true][NEW_CONTENT:   \n  ][END_UPDATE]")
	assert.False(t, result.ShouldUpdate, "whitespace-only content never triggers an update")
}

func TestParseNonGreedyContent(t *testing.T) {
	// The capture must stop at the first closing bracket, not the last
	result := Parse("[UPDATE_REPORT:true][NEW_CONTENT:first][END_UPDATE] trailing [brackets]")

	assert.True(t, result.ShouldUpdate)
	assert.Equal(t, "first", result.NewContent)
	assert.Equal(t, "trailing [brackets]", result.CleanText)
}

func TestParseContentTrimmed(t *testing.T) {
	result := Parse("[UPDATE_REPORT:true][NEW_CONTENT:  padded content  ][END_UPDATE]")

	assert.True(t, result.ShouldUpdate)
	assert.Equal(t, "padded content", result.NewContent)
}

func TestParseEmptyInput(t *testing.T) {
	result := Parse("")

	assert.Empty(t, result.CleanText)
	assert.False(t, result.ShouldUpdate)
}
