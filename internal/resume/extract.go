package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sakif/swipejobs/internal/llm"
	"github.com/sakif/swipejobs/internal/model"
)

// maxPromptChars bounds how much resume text is sent to the model.
const maxPromptChars = 20000

// ErrMalformedOutput means the model answered with something that is not
// the requested JSON object.
var ErrMalformedOutput = errors.New("resume: model output is not a JSON object")

// Extractor asks a language model to structure resume text.
type Extractor struct {
	model llm.Model
}

func NewExtractor(m llm.Model) *Extractor {
	return &Extractor{model: m}
}

const extractPrompt = `You are a resume parser. Read the resume below and answer with ONE JSON object
and nothing else, using exactly these keys (omit a key when the resume does not say):

{
  "name": "", "email": "", "phone": "", "location": "",
  "linkedinUrl": "", "githubUrl": "", "portfolioUrl": "",
  "summary": "two or three sentence professional summary",
  "skills": ["..."],
  "programmingLanguages": {"Go": "advanced"},
  "yearsExperience": 0,
  "education": [{"degree": "", "fieldOfStudy": "", "institution": "", "startDate": "", "endDate": ""}],
  "workExperience": [{"jobTitle": "", "companyName": "", "startDate": "", "endDate": "", "description": "", "technologies": [""]}],
  "projects": [{"title": "", "description": "", "technologies": [""], "url": ""}]
}

RESUME:
%s`

// Extract returns the structured view of text.
func (e *Extractor) Extract(ctx context.Context, text string) (*model.ResumeExtract, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("resume: no text to extract from")
	}
	text = truncateUTF8(strings.ToValidUTF8(text, "\uFFFD"), maxPromptChars)

	out, err := e.model.Generate(ctx, fmt.Sprintf(extractPrompt, text))
	if err != nil {
		return nil, err
	}
	return ParseExtract(out)
}

// truncateUTF8 cuts valid UTF-8 text to at most n bytes without splitting a
// rune.
func truncateUTF8(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := n
	for cut > 0 && n-cut < utf8.UTFMax && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// ParseExtract decodes a model answer, tolerating a Markdown code fence.
func ParseExtract(out string) (*model.ResumeExtract, error) {
	body := llm.StripCodeFence(out)
	if !strings.HasPrefix(body, "{") {
		return nil, ErrMalformedOutput
	}

	var x model.ResumeExtract
	if err := json.Unmarshal([]byte(body), &x); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	x.Skills = trimAll(x.Skills)
	return &x, nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
