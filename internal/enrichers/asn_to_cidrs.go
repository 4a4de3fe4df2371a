package enrichers

import (
	"context"
	"fmt"

	"github.com/flowsint/flowsint/internal/types"
)

// ASNToCIDRs lists the prefixes announced by an autonomous system
type ASNToCIDRs struct {
	*Base
}

type ripePrefixesResponse struct {
	Data struct {
		Prefixes []struct {
			Prefix string `json:"prefix"`
		} `json:"prefixes"`
	} `json:"data"`
}

func (e *ASNToCIDRs) Descriptor() Descriptor {
	return Descriptor{
		Name:        "asn_to_cidrs",
		Category:    "ASN",
		Description: "List the prefixes announced by an autonomous system.",
		InputType:   "ASN",
		OutputType:  "CIDR",
		Key:         "number",
		Icon:        "network",
	}
}

func (e *ASNToCIDRs) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("ASN", raw)
}

func (e *ASNToCIDRs) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		asn := input.(*types.ASN)

		endpoint := fmt.Sprintf("https://stat.ripe.net/data/announced-prefixes/data.json?resource=AS%d", asn.Number)
		var response ripePrefixesResponse
		if err := e.Client.GetJSON(ctx, endpoint, nil, &response); err != nil {
			return nil, fmt.Errorf("prefix lookup for AS%d failed: %w", asn.Number, err)
		}

		for _, prefix := range response.Data.Prefixes {
			results = append(results, &types.CIDR{Network: prefix.Prefix})
		}
	}
	return results, nil
}

func (e *ASNToCIDRs) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, input := range inputs {
		asn := input.(*types.ASN)
		if err := e.CreateNode(ctx, asn); err != nil {
			return nil, err
		}
		for _, result := range results {
			cidr := result.(*types.CIDR)
			if err := e.CreateNode(ctx, cidr); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, asn, cidr, "ANNOUNCES"); err != nil {
				return nil, err
			}
		}
		e.LogGraphMessage(fmt.Sprintf("AS%d announces %d prefixes", asn.Number, len(results)))
	}
	return results, nil
}

func init() {
	Registry.Register((&ASNToCIDRs{}).Descriptor(), func(base *Base) Enricher {
		return &ASNToCIDRs{Base: base}
	})
}
