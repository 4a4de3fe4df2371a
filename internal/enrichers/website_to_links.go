package enrichers

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/flowsint/flowsint/internal/types"
)

// websiteLinkCap bounds the number of outbound links kept per page
const websiteLinkCap = 100

// WebsiteToLinks extracts outbound links from a web page
type WebsiteToLinks struct {
	*Base
}

func (e *WebsiteToLinks) Descriptor() Descriptor {
	return Descriptor{
		Name:        "website_to_links",
		Category:    "Website",
		Description: "Extract outbound links from a web page.",
		InputType:   "Website",
		OutputType:  "Website",
		Key:         "url",
		Icon:        "link",
	}
}

func (e *WebsiteToLinks) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Website", raw)
}

func (e *WebsiteToLinks) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		site := input.(*types.Website)

		base, err := url.Parse(site.URL)
		if err != nil {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("Unparseable URL %s: %v", site.URL, err)
			continue
		}

		body, status, err := e.Client.GetBody(ctx, site.URL, map[string]string{"Accept": "text/html"})
		if err != nil {
			return nil, fmt.Errorf("fetch of %s failed: %w", site.URL, err)
		}
		if status < 200 || status >= 300 {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("Fetch of %s returned status %d", site.URL, status)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse of %s failed: %w", site.URL, err)
		}

		seen := map[string]bool{}
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			if len(seen) >= websiteLinkCap {
				return
			}
			href, _ := sel.Attr("href")
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
				return
			}
			resolved, err := base.Parse(href)
			if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
				return
			}
			resolved.Fragment = ""
			link := resolved.String()
			if link == site.URL || seen[link] {
				return
			}
			seen[link] = true
		})

		for link := range seen {
			results = append(results, &types.Website{URL: link})
		}
	}
	return results, nil
}

func (e *WebsiteToLinks) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, input := range inputs {
		site := input.(*types.Website)
		if err := e.CreateNode(ctx, site); err != nil {
			return nil, err
		}
		for _, result := range results {
			link := result.(*types.Website)
			if err := e.CreateNode(ctx, link); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, site, link, "LINKS_TO"); err != nil {
				return nil, err
			}
		}
		e.LogGraphMessage(fmt.Sprintf("%d links found on %s", len(results), site.URL))
	}
	return results, nil
}

func init() {
	Registry.Register((&WebsiteToLinks{}).Descriptor(), func(base *Base) Enricher {
		return &WebsiteToLinks{Base: base}
	})
}
