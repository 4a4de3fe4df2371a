package enrichers

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/flowsint/flowsint/internal/types"
)

// IPToDomain reverse-resolves IP addresses to domain names
type IPToDomain struct {
	*Base
	resolver *net.Resolver
}

func (e *IPToDomain) Descriptor() Descriptor {
	return Descriptor{
		Name:        "ip_to_domain",
		Category:    "Ip",
		Description: "Reverse-resolve IP addresses to domain names.",
		InputType:   "Ip",
		OutputType:  "Domain",
		Key:         "address",
		Icon:        "globe",
	}
}

func (e *IPToDomain) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Ip", raw)
}

func (e *IPToDomain) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		ip := input.(*types.Ip)
		names, err := e.resolver.LookupAddr(ctx, ip.Address)
		if err != nil {
			e.Logger.Info().Str("sketch_id", e.SketchID).Msgf("Error reverse-resolving %s: %v", ip.Address, err)
			continue
		}
		for _, name := range names {
			results = append(results, &types.Domain{Domain: strings.TrimSuffix(name, ".")})
		}
	}
	return results, nil
}

func (e *IPToDomain) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, input := range inputs {
		ip := input.(*types.Ip)
		if err := e.CreateNode(ctx, ip); err != nil {
			return nil, err
		}
		for _, result := range results {
			domain := result.(*types.Domain)
			if err := e.CreateNode(ctx, domain); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, domain, ip, "RESOLVES_TO"); err != nil {
				return nil, err
			}
			e.LogGraphMessage(fmt.Sprintf("Domain found for IP %s -> %s", ip.Address, domain.Domain))
		}
	}
	return results, nil
}

func init() {
	Registry.Register((&IPToDomain{}).Descriptor(), func(base *Base) Enricher {
		return &IPToDomain{Base: base, resolver: net.DefaultResolver}
	})
}
