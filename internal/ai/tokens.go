package ai

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

var (
	encodingsMu sync.Mutex
	encodings   = map[string]*tiktoken.Tiktoken{}
)

// EstimateTokens считает токены через tiktoken. Если кодировку получить не удалось,
// возвращает грубую оценку в четыре символа на токен.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := encodingFor(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

func estimateUsage(model, prompt, completion string) Usage {
	p := EstimateTokens(model, prompt)
	c := EstimateTokens(model, completion)
	return Usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}

func encodingFor(model string) *tiktoken.Tiktoken {
	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	if enc, ok := encodings[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Модели вне таблицы tiktoken (ollama) считаем общей кодировкой.
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		enc = nil
	}
	encodings[model] = enc
	return enc
}
