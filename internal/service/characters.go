package service

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	characterSearchWindow = 500
	sceneMaxLength        = 400
)

// Шаблоны для поиска главного героя в начале истории.
var (
	namedCharacterPattern = regexp.MustCompile(`\b[Aa]n? ((?:[a-z]+ ){0,2}[a-z]+) named ([A-Z][a-z]+)`)
	nameIsPattern         = regexp.MustCompile(`\b([A-Z][a-z]+) (?:was|is) (an? [a-z][^.!?,;]{2,60})`)
	thereWasPattern       = regexp.MustCompile(`\b[Tt]here (?:was|lived) (an? [a-z][^.!?,;]{2,60})`)

	doubleQuotedPattern = regexp.MustCompile(`"[^"]*"|“[^”]*”`)
)

// ExtractCharacterDescription ищет короткое описание героя в первых ~500 символах.
// Если ни один шаблон не подошел, возвращает пустую строку.
func ExtractCharacterDescription(story string) string {
	window := truncateRunes(story, characterSearchWindow)

	if m := namedCharacterPattern.FindStringSubmatch(window); m != nil {
		return fmt.Sprintf("%s, a %s", m[2], m[1])
	}
	if m := nameIsPattern.FindStringSubmatch(window); m != nil {
		return fmt.Sprintf("%s, %s", m[1], strings.TrimSpace(m[2]))
	}
	if m := thereWasPattern.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractSceneDescription убирает прямую речь и набирает целые предложения до maxLength символов.
func ExtractSceneDescription(paragraph string, maxLength int) string {
	noDialogue := doubleQuotedPattern.ReplaceAllString(paragraph, "")

	var b strings.Builder
	for _, sentence := range strings.Split(noDialogue, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if b.Len()+len(sentence)+2 > maxLength {
			break
		}
		b.WriteString(sentence)
		b.WriteString(". ")
	}

	description := strings.TrimSpace(b.String())
	if description == "" {
		return truncateRunes(paragraph, maxLength)
	}
	return description
}

const (
	baseIllustrationStyle = "children's book illustration, watercolor style, soft colors, whimsical, friendly, safe for children"
	illustrationSafety    = "IMPORTANT: No scary elements, no violence, no weapons, no dark themes. Only positive, uplifting, child-safe imagery."
)

func ageStyle(age int) string {
	switch {
	case age <= 5:
		return baseIllustrationStyle + ", simple shapes, bright colors, very cute, gentle"
	case age <= 8:
		return baseIllustrationStyle + ", detailed but clear, colorful, adventurous, engaging"
	default:
		return baseIllustrationStyle + ", detailed illustration, rich colors, captivating, age-appropriate"
	}
}

// ChildFriendlyPrompt оборачивает сцену в стиль по возрасту и ограничения безопасности.
func ChildFriendlyPrompt(scene string, age int, theme, character string) string {
	var b strings.Builder
	b.WriteString("Create a beautiful children's book illustration for this scene:\n\n")
	b.WriteString(scene)
	b.WriteString("\n\nStyle: ")
	b.WriteString(ageStyle(age))
	if theme = strings.TrimSpace(theme); theme != "" && !strings.EqualFold(theme, "default") {
		b.WriteString("\nStory theme: ")
		b.WriteString(theme)
	}
	if character != "" {
		b.WriteString("\nMain character: ")
		b.WriteString(character)
		b.WriteString(". Keep the character's appearance the same in every illustration.")
	}
	b.WriteString("\n\n")
	b.WriteString(illustrationSafety)
	fmt.Fprintf(&b, "\n\nThe illustration should be warm, inviting, and appropriate for a %d-year-old child's bedtime story.", age)
	return b.String()
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
