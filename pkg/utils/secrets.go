package utils

import (
	"fmt"
	"os"
	"strings"
)

// secretsDir - стандартный каталог Docker Secrets. Переменная, чтобы тесты могли подменить путь.
var secretsDir = "/run/secrets"

// ReadSecret читает секрет из файла Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// SecretOrEnv возвращает значение из переменной окружения, а если оно пустое - из файла секрета.
// Отсутствие обоих источников не ошибка: часть ключей (ElevenLabs, RabbitMQ) опциональна.
func SecretOrEnv(envValue, secretName string) string {
	if strings.TrimSpace(envValue) != "" {
		return strings.TrimSpace(envValue)
	}
	secret, err := ReadSecret(secretName)
	if err != nil {
		return ""
	}
	return secret
}

// MaskURL прячет учетные данные в URL подключения для логов.
func MaskURL(raw string) string {
	schemeEnd := strings.Index(raw, "://")
	at := strings.LastIndex(raw, "@")
	if schemeEnd == -1 || at == -1 || at < schemeEnd+3 {
		return raw
	}
	return raw[:schemeEnd+3] + "****:****@" + raw[at+1:]
}
