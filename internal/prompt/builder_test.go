package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyweave/internal/models"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder()
	require.NoError(t, err)
	return b
}

func TestBuildIncludesThemeAndInterests(t *testing.T) {
	b := newTestBuilder(t)

	for _, profile := range models.ProfileTypes {
		t.Run(string(profile), func(t *testing.T) {
			out, err := b.Build(Request{
				Profile:       profile,
				Age:           7,
				Theme:         "space",
				Interests:     []string{"rockets", "dinosaurs"},
				LengthMinutes: 10,
			})
			require.NoError(t, err)
			assert.Contains(t, out, "7-year-old")
			assert.Contains(t, out, "Theme: space")
			assert.Contains(t, out, "rockets, dinosaurs")
			assert.Contains(t, out, "astronaut")
			assert.NotContains(t, out, "FAIRY-TALE MIX")
			assert.NotContains(t, out, "CONTINUATION")
		})
	}
}

func TestBuildFairyTaleMix(t *testing.T) {
	b := newTestBuilder(t)

	themed, err := b.Build(Request{Profile: models.ProfileAutism, Age: 6, Theme: "animals", LengthMinutes: 5})
	require.NoError(t, err)

	mixed, err := b.Build(Request{Profile: models.ProfileAutism, Age: 6, Theme: "", Interests: []string{" ", ""}, LengthMinutes: 5})
	require.NoError(t, err)

	assert.NotEqual(t, themed, mixed)
	assert.Contains(t, mixed, "FAIRY-TALE MIX")
	assert.Contains(t, mixed, "Cinderella")
	assert.Contains(t, mixed, "PROFILE REQUIREMENTS (Autism)")
	assert.Contains(t, mixed, "First-Then-Finally")
}

func TestBuildDefaultThemeIsFairyTaleMix(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(Request{Profile: models.ProfileGeneral, Age: 9, Theme: "default", LengthMinutes: 10})
	require.NoError(t, err)
	assert.Contains(t, out, "FAIRY-TALE MIX")
}

func TestBuildInterestsWithoutThemeUsesProfileTemplate(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(Request{Profile: models.ProfileAnxiety, Age: 5, Interests: []string{"bunnies"}, LengthMinutes: 5})
	require.NoError(t, err)
	assert.NotContains(t, out, "FAIRY-TALE MIX")
	assert.Contains(t, out, "bunnies")
	assert.Contains(t, out, "Breathing cues")
}

func TestBuildEmptyInterestsUseProfileDefault(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(Request{Profile: models.ProfileADHD, Age: 8, Theme: "space", LengthMinutes: 5})
	require.NoError(t, err)
	assert.Contains(t, out, "Child's interests: exciting adventures")
}

func TestBuildContinuation(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(Request{
		Profile:       models.ProfileADHD,
		Age:           6,
		Theme:         "space",
		LengthMinutes: 5,
		Continuation:  &Continuation{Chapter: 3, Synopsis: "Max found a shiny rocket."},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "chapter 3")
	assert.Contains(t, out, "Max found a shiny rocket.")
}

func TestBuildRejectsUnknownProfile(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build(Request{Profile: "dyslexia", Age: 6, Theme: "space", LengthMinutes: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProfileType)
}

func TestSentenceCount(t *testing.T) {
	tests := []struct {
		name     string
		profile  models.ProfileType
		minutes  int
		demo     bool
		expected int
	}{
		{"demo overrides everything", models.ProfileAnxiety, 15, true, 15},
		{"adhd 10 minutes", models.ProfileADHD, 10, false, 133},
		{"autism 10 minutes", models.ProfileAutism, 10, false, 83},
		{"anxiety 15 minutes", models.ProfileAnxiety, 15, false, 90},
		{"general uses default pace", models.ProfileGeneral, 5, false, 37},
		{"floor applies", models.ProfileAnxiety, 1, false, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SentenceCount(tt.profile, tt.minutes, tt.demo))
		})
	}
}

func TestBuildDemoModeSentenceCount(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(Request{Profile: models.ProfileAutism, Age: 6, Theme: "space", LengthMinutes: 15, DemoMode: true})
	require.NoError(t, err)
	assert.Contains(t, out, "approximately 15 sentences")
}

func TestFallbackStory(t *testing.T) {
	for _, profile := range models.ProfileTypes {
		story := FallbackStory(profile)
		assert.NotEmpty(t, story, profile)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(story), "The end."), profile)
	}
	assert.Equal(t, FallbackStory(models.ProfileADHD), FallbackStory("unknown"))
	assert.Contains(t, FallbackStory(models.ProfileAutism), "Luna")
}

func TestBuildEmotionTagging(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.BuildEmotionTagging("The moon rose.\n\nLuna slept.", "calm", "space")
	require.NoError(t, err)
	assert.Contains(t, out, "- [whisper] - quiet, soft voice")
	assert.Contains(t, out, "Story mood: calm")
	assert.Contains(t, out, "Story theme: space")
	assert.Contains(t, out, "The moon rose.\n\nLuna slept.")
	assert.Len(t, EmotionTags, 12)
}
