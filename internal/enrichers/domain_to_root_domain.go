package enrichers

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowsint/flowsint/internal/types"
)

// DomainToRootDomain reduces a domain to its registrable root
type DomainToRootDomain struct {
	*Base
}

// Common two-part public suffixes the naive last-two-labels heuristic would
// get wrong. Not exhaustive; unknown suffixes fall back to the heuristic.
var twoPartSuffixes = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true,
	"com.au": true, "net.au": true, "org.au": true,
	"co.jp": true, "or.jp": true, "ne.jp": true,
	"com.br": true, "com.cn": true, "com.mx": true, "co.nz": true,
	"co.za": true, "com.ar": true, "com.tr": true, "co.in": true,
}

func rootOf(domain string) string {
	labels := strings.Split(strings.ToLower(strings.Trim(domain, ".")), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	suffix := strings.Join(labels[len(labels)-2:], ".")
	if twoPartSuffixes[suffix] {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return suffix
}

func (e *DomainToRootDomain) Descriptor() Descriptor {
	return Descriptor{
		Name:        "domain_to_root_domain",
		Category:    "Domain",
		Description: "Reduce a domain to its registrable root.",
		InputType:   "Domain",
		OutputType:  "Domain",
		Key:         "domain",
		Icon:        "git-branch",
	}
}

func (e *DomainToRootDomain) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *DomainToRootDomain) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		domain := input.(*types.Domain)
		root := rootOf(domain.Domain)
		if root == "" || root == domain.Domain {
			continue
		}
		results = append(results, &types.Domain{Domain: root})
	}
	return results, nil
}

func (e *DomainToRootDomain) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for i, result := range results {
		if i >= len(inputs) {
			break
		}
		sub := inputs[i].(*types.Domain)
		root := result.(*types.Domain)
		if err := e.CreateNode(ctx, sub); err != nil {
			return nil, err
		}
		if err := e.CreateNode(ctx, root); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, root, sub, "HAS_SUBDOMAIN"); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("Root domain for %s -> %s", sub.Domain, root.Domain))
	}
	return results, nil
}

func init() {
	Registry.Register((&DomainToRootDomain{}).Descriptor(), func(base *Base) Enricher {
		return &DomainToRootDomain{Base: base}
	})
}
