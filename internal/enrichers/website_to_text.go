package enrichers

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/flowsint/flowsint/internal/types"
)

// WebsiteToText extracts the readable text of a web page as markdown
type WebsiteToText struct {
	*Base
	converter *md.Converter
}

func (e *WebsiteToText) Descriptor() Descriptor {
	return Descriptor{
		Name:        "website_to_text",
		Category:    "Website",
		Description: "Extract the readable text of a web page.",
		InputType:   "Website",
		OutputType:  "Phrase",
		Key:         "url",
		Icon:        "file-text",
	}
}

func (e *WebsiteToText) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Website", raw)
}

func (e *WebsiteToText) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		site := input.(*types.Website)

		body, status, err := e.Client.GetBody(ctx, site.URL, map[string]string{"Accept": "text/html"})
		if err != nil {
			return nil, fmt.Errorf("fetch of %s failed: %w", site.URL, err)
		}
		if status < 200 || status >= 300 {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("Fetch of %s returned status %d", site.URL, status)
			continue
		}

		text, err := e.converter.ConvertString(string(body))
		if err != nil {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("Conversion of %s failed: %v", site.URL, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		results = append(results, &types.Phrase{Text: text})
	}
	return results, nil
}

func (e *WebsiteToText) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for i, result := range results {
		if i >= len(inputs) {
			break
		}
		site := inputs[i].(*types.Website)
		phrase := result.(*types.Phrase)
		if err := e.CreateNode(ctx, site); err != nil {
			return nil, err
		}
		if err := e.CreateNode(ctx, phrase); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, site, phrase, "HAS_TEXT"); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("Text extracted from %s (%d chars)", site.URL, len(phrase.Text)))
	}
	return results, nil
}

func init() {
	Registry.Register((&WebsiteToText{}).Descriptor(), func(base *Base) Enricher {
		return &WebsiteToText{Base: base, converter: md.NewConverter("", true, nil)}
	})
}
