package enrichers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/flowsint/flowsint/internal/types"
)

// DomainToSubdomains discovers subdomains through certificate transparency
// logs (crt.sh).
type DomainToSubdomains struct {
	*Base
}

type crtshEntry struct {
	NameValue string `json:"name_value"`
}

func (e *DomainToSubdomains) Descriptor() Descriptor {
	return Descriptor{
		Name:        "domain_to_subdomains",
		Category:    "Domain",
		Description: "Discover subdomains via certificate transparency logs.",
		InputType:   "Domain",
		OutputType:  "Domain",
		Key:         "domain",
		Icon:        "network",
	}
}

func (e *DomainToSubdomains) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *DomainToSubdomains) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		domain := input.(*types.Domain)

		endpoint := fmt.Sprintf("https://crt.sh/?q=%s&output=json", url.QueryEscape("%."+domain.Domain))
		var entries []crtshEntry
		if err := e.Client.GetJSON(ctx, endpoint, nil, &entries); err != nil {
			return nil, fmt.Errorf("crt.sh lookup for %s failed: %w", domain.Domain, err)
		}

		seen := map[string]bool{}
		for _, entry := range entries {
			for _, name := range strings.Split(entry.NameValue, "\n") {
				name = strings.TrimSpace(strings.TrimPrefix(name, "*."))
				if name == "" || name == domain.Domain || seen[name] {
					continue
				}
				if !strings.HasSuffix(name, "."+domain.Domain) {
					continue
				}
				seen[name] = true
			}
		}

		names := make([]string, 0, len(seen))
		for name := range seen {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			results = append(results, &types.Domain{Domain: name, Root: domain.Domain})
		}
	}
	return results, nil
}

func (e *DomainToSubdomains) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, input := range inputs {
		parent := input.(*types.Domain)
		if err := e.CreateNode(ctx, parent); err != nil {
			return nil, err
		}
		for _, result := range results {
			sub := result.(*types.Domain)
			if sub.Root != parent.Domain {
				continue
			}
			if err := e.CreateNode(ctx, sub); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, parent, sub, "HAS_SUBDOMAIN"); err != nil {
				return nil, err
			}
		}
		e.LogGraphMessage(fmt.Sprintf("%d subdomains found for %s", len(results), parent.Domain))
	}
	return results, nil
}

func init() {
	Registry.Register((&DomainToSubdomains{}).Descriptor(), func(base *Base) Enricher {
		return &DomainToSubdomains{Base: base}
	})
}
