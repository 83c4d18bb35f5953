package prompt

// EmotionTag - тег интонации для озвучки.
type EmotionTag struct {
	Name string
	Hint string
}

// EmotionTags - теги, которые модель может вставлять в текст.
var EmotionTags = []EmotionTag{
	{"gentle laughter", "soft, kind laughter"},
	{"excited", "enthusiastic, energetic tone"},
	{"whisper", "quiet, soft voice"},
	{"happy", "joyful, cheerful tone"},
	{"wonder", "amazed, curious voice"},
	{"calm", "peaceful, soothing tone"},
	{"sleepy", "drowsy, yawning quality"},
	{"playful", "fun, bouncy delivery"},
	{"warm", "affectionate, loving tone"},
	{"giggle", "small, light laughter"},
	{"sigh", "content, relaxed breathing"},
	{"soft", "gentle, tender voice"},
}

type emotionData struct {
	Tags  []EmotionTag
	Mood  string
	Theme string
	Text  string
}

// BuildEmotionTagging строит инструкцию для разметки готовой истории тегами интонации.
func (b *Builder) BuildEmotionTagging(text, mood, theme string) (string, error) {
	return b.execute("emotion", emotionData{
		Tags:  EmotionTags,
		Mood:  mood,
		Theme: theme,
		Text:  text,
	})
}
