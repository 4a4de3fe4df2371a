package enrichers

import (
	"context"
	"fmt"
	"net"

	"github.com/flowsint/flowsint/internal/types"
)

// DomainToIP resolves domain names to IP addresses
type DomainToIP struct {
	*Base
	resolver *net.Resolver
}

func (e *DomainToIP) Descriptor() Descriptor {
	return Descriptor{
		Name:        "domain_to_ip",
		Category:    "Domain",
		Description: "Resolve domain names to IP addresses.",
		InputType:   "Domain",
		OutputType:  "Ip",
		Key:         "domain",
		Icon:        "globe",
	}
}

func (e *DomainToIP) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *DomainToIP) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		domain := input.(*types.Domain)
		addrs, err := e.resolver.LookupHost(ctx, domain.Domain)
		if err != nil {
			e.Logger.Info().Str("sketch_id", e.SketchID).Msgf("Error resolving %s: %v", domain.Domain, err)
			continue
		}
		for _, addr := range addrs {
			results = append(results, &types.Ip{Address: addr})
		}
	}
	return results, nil
}

func (e *DomainToIP) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, input := range inputs {
		domain := input.(*types.Domain)
		if err := e.CreateNode(ctx, domain); err != nil {
			return nil, err
		}
		for _, result := range results {
			ip := result.(*types.Ip)
			if err := e.CreateNode(ctx, ip); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, domain, ip, "RESOLVES_TO"); err != nil {
				return nil, err
			}
			e.LogGraphMessage(fmt.Sprintf("IP found for domain %s -> %s", domain.Domain, ip.Address))
		}
	}
	return results, nil
}

func init() {
	Registry.Register((&DomainToIP{}).Descriptor(), func(base *Base) Enricher {
		return &DomainToIP{Base: base, resolver: net.DefaultResolver}
	})
}
