package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codeminder/internal/apperror"
)

// ============================================================================
// JSON CONTRACT TESTS
// ============================================================================

type analysis struct {
	MatchPercentage int      `json:"matchPercentage"`
	Strengths       []string `json:"strengths"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantMatch    int
		wantRepaired bool
	}{
		{
			name:      "plain object",
			text:      `{"matchPercentage": 72, "strengths": ["go"]}`,
			wantMatch: 72,
		},
		{
			name:      "json fence",
			text:      "```json\n{\"matchPercentage\": 40, \"strengths\": []}\n```",
			wantMatch: 40,
		},
		{
			name:      "bare fence with prose around it",
			text:      "Here you go:\n```\n{\"matchPercentage\": 55}\n```\nGood luck!",
			wantMatch: 55,
		},
		{
			name:         "trailing comma needs repair",
			text:         `{"matchPercentage": 90, "strengths": ["sql",],}`,
			wantMatch:    90,
			wantRepaired: true,
		},
		{
			name:         "single quotes need repair",
			text:         `{'matchPercentage': 10, 'strengths': ['a']}`,
			wantMatch:    10,
			wantRepaired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got analysis
			parse, err := DecodeJSON(tt.text, &got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, got.MatchPercentage)
			assert.Equal(t, tt.wantRepaired, parse.Repaired)
			if tt.wantRepaired {
				assert.Equal(t, []string{RepairWarning}, parse.Warnings())
			} else {
				assert.Nil(t, parse.Warnings())
			}
		})
	}
}

func TestDecodeJSON_Array(t *testing.T) {
	var stages []map[string]any
	parse, err := DecodeJSON("```json\n[{\"stage\": \"Basics\"}, {\"stage\": \"Advanced\"}]\n```", &stages)
	require.NoError(t, err)
	assert.False(t, parse.Repaired)
	assert.Len(t, stages, 2)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "no json at all", text: "I cannot help with that."},
		{name: "empty", text: ""},
		{name: "wrong shape", text: `{"matchPercentage": "very high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got analysis
			_, err := DecodeJSON(tt.text, &got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrMalformedAIResponse))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("noise {\"a\":1} more noise"))
	assert.Equal(t, `[1,2]`, extractJSON("```json\n[1,2]\n```"))
	assert.Equal(t, "", extractJSON("nothing here"))
	assert.Equal(t, `{"a": [1`, extractJSON(`{"a": [1`))
}

// ============================================================================
// MODEL TESTS
// ============================================================================

func TestNewGemini_WithoutKey(t *testing.T) {
	m, err := NewGemini(t.Context(), "", "gemini-2.0-flash")
	require.NoError(t, err)

	_, err = m.Generate(t.Context(), "hello", FormatText)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
}

// ============================================================================
// PROMPT TESTS
// ============================================================================

func TestChatPrompt(t *testing.T) {
	p := ChatPrompt(ChatInput{Name: "Asha", Stats: `{"codeforces":{}}`, Question: "How do I improve?"})
	assert.Contains(t, p, "Asha")
	assert.Contains(t, p, "at most 5 lines")
	assert.Contains(t, p, `{"codeforces":{}}`)
	assert.NotContains(t, p, "Resume:")
	assert.True(t, strings.HasSuffix(p, "Question: How do I improve?\n"))
}

func TestRoadmapPrompt(t *testing.T) {
	p := RoadmapPrompt(RoadmapInput{Goal: "backend dev", SkillLevel: "beginner", AvailableTimePerWeek: "10h", LearningStyle: "videos"})
	for _, want := range []string{"backend dev", "beginner", "10h", "videos", "difficulty_level", "5 to 8 stages"} {
		assert.Contains(t, p, want)
	}
}

// ============================================================================
// PDF TESTS
// ============================================================================

func TestExtractPDFText_NotAPDF(t *testing.T) {
	_, err := ExtractPDFText([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestExtractPDFText_Empty(t *testing.T) {
	_, err := ExtractPDFText(nil)
	assert.Error(t, err)
}
