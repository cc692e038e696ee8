// internal/puzzle/gemini.go
//
// Remote puzzle source backed by the Gemini generative-text API.
//
// Puzzles are requested as JSON matching {gibberish, answer}; hints as a
// single plain sentence. Anything other than non-empty strings is reported
// as ErrFetch.
package puzzle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

var difficultyPrompts = map[Difficulty]string{
	Easy:   "Generate a funny and clever 'gibberish' phrase and its corresponding real phrase. The gibberish should be simple, short, and based on a common, everyday phrase. For example, Gibberish: 'aisle of ewe', Real Phrase: 'I love you'.",
	Medium: "Generate a funny and clever 'gibberish' phrase and its corresponding real phrase. The phrase should be of moderate complexity, possibly a well-known quote, song lyric, or multi-word concept. For example, Gibberish: 'wreck amend day shun', Real Phrase: 'recommendation'.",
	Hard:   "Generate a challenging and clever 'gibberish' phrase and its corresponding real phrase. The phrase should be complex, obscure, a full sentence, or a technical term, requiring more thought to decipher. For example, Gibberish: 'fur stand form host', Real Phrase: 'first and foremost'.",
}

var themePrompts = map[Theme]string{
	General: "",
	Movies:  "The phrase must be a well-known movie title, quote, or character name.",
	Science: "The phrase must be a common scientific term, concept, or a famous scientist's name.",
	History: "The phrase must be related to a significant historical event, figure, or concept.",
}

// Request is a single text generation call.
type Request struct {
	Prompt string
	JSON   bool // reply must be a {gibberish, answer} object
}

// Generator performs one generation call and returns the reply text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Gemini implements Source on top of a Generator.
type Gemini struct {
	gen Generator
}

// NewGemini wraps gen.
func NewGemini(gen Generator) *Gemini {
	return &Gemini{gen: gen}
}

// NewGeminiFromKey connects to the Gemini API with apiKey.
func NewGeminiFromKey(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return NewGemini(&genaiGenerator{client: client, model: model}), nil
}

// Prompt builds the generation prompt for a difficulty and theme.
func Prompt(d Difficulty, t Theme) string {
	return strings.TrimSpace(difficultyPrompts[d] + " " + themePrompts[t])
}

// HintPrompt builds the hint prompt for answer.
func HintPrompt(answer string) string {
	return fmt.Sprintf("Generate a short, one-sentence hint for the phrase %q. The hint should be clever and not too obvious. Do not include the answer or any part of it in the hint.", answer)
}

// FetchPuzzle implements Source.
func (g *Gemini) FetchPuzzle(ctx context.Context, d Difficulty, t Theme) (Puzzle, error) {
	reply, err := g.gen.Generate(ctx, Request{Prompt: Prompt(d, t), JSON: true})
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Str("theme", string(t)).Msg("generate puzzle")
		return Puzzle{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	var p Puzzle
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &p); err != nil {
		return Puzzle{}, fmt.Errorf("%w: invalid puzzle json: %v", ErrFetch, err)
	}
	p.Gibberish, p.Answer = strings.TrimSpace(p.Gibberish), strings.TrimSpace(p.Answer)
	if !p.Valid() {
		return Puzzle{}, fetchErr("invalid puzzle format received from API")
	}
	return p, nil
}

// FetchHint implements Source.
func (g *Gemini) FetchHint(ctx context.Context, answer string) (string, error) {
	reply, err := g.gen.Generate(ctx, Request{Prompt: HintPrompt(answer)})
	if err != nil {
		log.Error().Err(err).Msg("generate hint")
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	hint := strings.TrimSpace(reply)
	if hint == "" {
		return "", fetchErr("empty hint received from API")
	}
	return hint, nil
}

// genaiGenerator is the production Generator.
type genaiGenerator struct {
	client *genai.Client
	model  string
}

var puzzleSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"gibberish": {
			Type:        genai.TypeString,
			Description: "The nonsensical phrase that sounds like a real phrase.",
		},
		"answer": {
			Type:        genai.TypeString,
			Description: "The real phrase that the gibberish sounds like.",
		},
	},
	Required: []string{"gibberish", "answer"},
}

func (g *genaiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var cfg *genai.GenerateContentConfig
	if req.JSON {
		cfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   puzzleSchema,
		}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
