package prompt

import "storyweave/internal/models"

const (
	minSentenceCount  = 20
	demoSentenceCount = 15

	defaultWordsPerMinute   = 90
	defaultWordsPerSentence = 12
)

type readingPace struct {
	wordsPerMinute   int
	wordsPerSentence int
}

// Темп чтения вслух и средняя длина предложения для каждого профиля.
var paces = map[models.ProfileType]readingPace{
	models.ProfileADHD:    {wordsPerMinute: 80, wordsPerSentence: 6},
	models.ProfileAutism:  {wordsPerMinute: 100, wordsPerSentence: 12},
	models.ProfileAnxiety: {wordsPerMinute: 90, wordsPerSentence: 15},
}

// SentenceCount переводит длительность истории в минутах в целевое число предложений.
// В демо-режиме всегда 15, иначе не меньше 20.
func SentenceCount(profile models.ProfileType, minutes int, demoMode bool) int {
	if demoMode {
		return demoSentenceCount
	}
	pace, ok := paces[profile]
	if !ok {
		pace = readingPace{wordsPerMinute: defaultWordsPerMinute, wordsPerSentence: defaultWordsPerSentence}
	}
	count := pace.wordsPerMinute * minutes / pace.wordsPerSentence
	if count < minSentenceCount {
		return minSentenceCount
	}
	return count
}
