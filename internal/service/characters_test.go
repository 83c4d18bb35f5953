package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"storyweave/internal/models"
)

func TestExtractCharacterDescription(t *testing.T) {
	tests := []struct {
		story string
		want  string
	}{
		{"Once upon a time, a little fox named Pip lived in the woods.", "Pip, a little fox"},
		{"Luna was a curious young owl with silver wings. She loved stars.", "Luna, a curious young owl with silver wings"},
		{"Long ago there lived a gentle bear in a cave.", "a gentle bear in a cave"},
		{"The stars were bright tonight.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractCharacterDescription(tt.story), tt.story)
	}

	late := strings.Repeat("z", 600) + " a small cat named Tom"
	assert.Empty(t, ExtractCharacterDescription(late))
}

func TestExtractSceneDescription(t *testing.T) {
	paragraph := `Pip looked up at the moon. "Hello, moon!" he said. The moon smiled back.`
	assert.Equal(t, "Pip looked up at the moon. he said. The moon smiled back.", ExtractSceneDescription(paragraph, 400))

	short := ExtractSceneDescription("First sentence here. Second sentence is longer than the limit.", 25)
	assert.Equal(t, "First sentence here.", short)

	assert.Equal(t, `"Hi!"`, ExtractSceneDescription(`"Hi!"`, 10))
}

func TestChildFriendlyPrompt(t *testing.T) {
	young := ChildFriendlyPrompt("A fox under the moon.", 4, "forest", "Pip, a little fox")
	assert.Contains(t, young, "A fox under the moon.")
	assert.Contains(t, young, "simple shapes")
	assert.Contains(t, young, "Story theme: forest")
	assert.Contains(t, young, "Main character: Pip, a little fox")
	assert.Contains(t, young, "No scary elements")
	assert.Contains(t, young, "4-year-old")

	assert.Contains(t, ChildFriendlyPrompt("scene", 7, "", ""), "adventurous")
	older := ChildFriendlyPrompt("scene", models.MaxChildAge, "default", "")
	assert.Contains(t, older, "captivating")
	assert.NotContains(t, older, "Story theme")
	assert.NotContains(t, older, "Main character")
}

func TestCacheKey(t *testing.T) {
	key := CacheKey(models.ProfileADHD, " Space ", 6, 10)
	assert.Len(t, key, 64)
	assert.Equal(t, key, CacheKey(models.ProfileADHD, "space", 6, 10))
	assert.NotEqual(t, key, CacheKey(models.ProfileADHD, "space", 6, 15))
	assert.NotEqual(t, key, CacheKey(models.ProfileAutism, "space", 6, 10))
	assert.NotEqual(t, key, CacheKey(models.ProfileADHD, "space", 7, 10))
}
