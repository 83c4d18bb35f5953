package prompt

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"storyweave/internal/models"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// ErrInvalidProfileType возвращается для профиля вне перечисления.
var ErrInvalidProfileType = errors.New("invalid profile type")

const fairyTaleTemplate = "fairytale"

var profileLabels = map[models.ProfileType]string{
	models.ProfileADHD:    "ADHD",
	models.ProfileAutism:  "Autism",
	models.ProfileAnxiety: "Anxiety",
	models.ProfileGeneral: "General",
}

// Фраза вместо интересов, если ребенок их не указал.
var defaultInterests = map[models.ProfileType]string{
	models.ProfileADHD:    "exciting adventures",
	models.ProfileAutism:  "familiar, comforting things",
	models.ProfileAnxiety: "peaceful, comforting things",
	models.ProfileGeneral: "whatever makes a story magical",
}

// Continuation описывает продолжение ранее сохраненной истории.
type Continuation struct {
	Chapter  int
	Synopsis string
}

// Request - входные параметры построения промпта.
type Request struct {
	Profile       models.ProfileType
	Age           int
	Theme         string
	Interests     []string
	LengthMinutes int
	DemoMode      bool
	Continuation  *Continuation
}

type templateData struct {
	Age           int
	Theme         string
	ThemeElements string
	Interests     string
	SentenceCount int
	ProfileLabel  string
	FairyTales    string
	Rules         string
	Continuation  *Continuation
}

// Builder строит промпты из встроенных шаблонов. Шаблоны разбираются один раз в NewBuilder.
type Builder struct {
	templates *template.Template
}

// NewBuilder разбирает встроенные шаблоны и проверяет, что для каждого профиля они есть.
func NewBuilder() (*Builder, error) {
	tmpl, err := template.New("prompts").Option("missingkey=error").ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	required := []string{fairyTaleTemplate, "continuation", "emotion"}
	for _, profile := range models.ProfileTypes {
		required = append(required, string(profile), rulesTemplate(profile))
	}
	for _, name := range required {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("prompt template '%s' is missing", name)
		}
	}
	return &Builder{templates: tmpl}, nil
}

// Build выбирает шаблон по профилю и подставляет параметры.
// Пустая тема вместе с пустыми интересами включает смешанный сказочный шаблон,
// к которому дописываются структурные требования профиля.
func (b *Builder) Build(req Request) (string, error) {
	if !req.Profile.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidProfileType, req.Profile)
	}

	theme := strings.TrimSpace(req.Theme)
	displayTheme := theme
	if displayTheme == "" || strings.EqualFold(displayTheme, "default") {
		displayTheme = "any gentle theme that fits the child's interests"
	}
	data := templateData{
		Age:           req.Age,
		Theme:         displayTheme,
		ThemeElements: strings.Join(lookupTheme(theme).Elements, ", "),
		Interests:     joinInterests(req.Profile, req.Interests),
		SentenceCount: SentenceCount(req.Profile, req.LengthMinutes, req.DemoMode),
		ProfileLabel:  profileLabels[req.Profile],
		Continuation:  normalizeContinuation(req.Continuation),
	}

	if !IsFairyTaleMix(req.Theme, req.Interests) {
		return b.execute(string(req.Profile), data)
	}

	rules, err := b.execute(rulesTemplate(req.Profile), data)
	if err != nil {
		return "", err
	}
	data.Rules = rules
	data.FairyTales = strings.Join(fairyTales, ", ")
	return b.execute(fairyTaleTemplate, data)
}

// IsFairyTaleMix сообщает, что ни тема, ни интересы не заданы.
func IsFairyTaleMix(theme string, interests []string) bool {
	theme = strings.TrimSpace(theme)
	if theme != "" && !strings.EqualFold(theme, "default") {
		return false
	}
	for _, interest := range interests {
		if strings.TrimSpace(interest) != "" {
			return false
		}
	}
	return true
}

func (b *Builder) execute(name string, data any) (string, error) {
	var sb strings.Builder
	if err := b.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template '%s': %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func rulesTemplate(profile models.ProfileType) string {
	return string(profile) + "_rules"
}

func joinInterests(profile models.ProfileType, interests []string) string {
	cleaned := make([]string, 0, len(interests))
	for _, interest := range interests {
		if interest = strings.TrimSpace(interest); interest != "" {
			cleaned = append(cleaned, interest)
		}
	}
	if len(cleaned) == 0 {
		return defaultInterests[profile]
	}
	return strings.Join(cleaned, ", ")
}

func normalizeContinuation(c *Continuation) *Continuation {
	if c == nil || c.Chapter < 2 {
		return nil
	}
	synopsis := strings.TrimSpace(c.Synopsis)
	if synopsis == "" {
		synopsis = "the previous chapter ended with the main character safe and happy"
	}
	return &Continuation{Chapter: c.Chapter, Synopsis: synopsis}
}
