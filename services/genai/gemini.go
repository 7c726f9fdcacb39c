package genaisvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/ai"
)

type geminiGenerator struct {
	client *genai.Client
	model  string
}

var _ ai.TextGenerator = (*geminiGenerator)(nil)

// NewGeminiGenerator returns an ai.TextGenerator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, conf *core.Config) (ai.TextGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.AI.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}
	return &geminiGenerator{client: client, model: conf.AI.Model}, nil
}

func (g *geminiGenerator) GenerateJSON(ctx context.Context, prompt string, schema *ai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(schema),
	})
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	return resp.Text(), nil
}

func (g *geminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}
	return resp.Text(), nil
}

func toGenaiSchema(s *ai.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	gs := &genai.Schema{
		Type:     toGenaiType(s.Type),
		Items:    toGenaiSchema(s.Items),
		Required: s.Required,
	}
	if len(s.Properties) > 0 {
		gs.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			gs.Properties[name] = toGenaiSchema(prop)
		}
	}
	return gs
}

func toGenaiType(t string) genai.Type {
	switch t {
	case ai.TypeArray:
		return genai.TypeArray
	case ai.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
