package enrichers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowsint/flowsint/internal/types"
)

// asnmapRecord is one record returned by the ProjectDiscovery ASN lookup API
// used by both domain_to_asn and ip_to_asn.
type asnmapRecord struct {
	ASNumber  string `json:"as_number"`
	ASName    string `json:"as_name"`
	ASCountry string `json:"as_country"`
}

func asnmapLookup(ctx context.Context, client *Client, target, apiKey string) (*types.ASN, error) {
	endpoint := fmt.Sprintf("https://api.asnmap.sh/api/v1/asnmap?target=%s", target)
	headers := map[string]string{"X-PDCP-Key": apiKey}

	var records []asnmapRecord
	if err := client.GetJSON(ctx, endpoint, headers, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	record := records[0]
	numberStr := strings.TrimPrefix(strings.TrimPrefix(record.ASNumber, "AS"), "as")
	number, err := strconv.Atoi(numberStr)
	if err != nil {
		return nil, fmt.Errorf("unparseable AS number %q: %w", record.ASNumber, err)
	}

	return &types.ASN{
		Number:      number,
		Name:        record.ASName,
		Country:     record.ASCountry,
		Description: record.ASName,
	}, nil
}

// DomainToASN resolves the autonomous system hosting a domain
type DomainToASN struct {
	*Base
}

func (e *DomainToASN) Descriptor() Descriptor {
	return Descriptor{
		Name:        "domain_to_asn",
		Category:    "Domain",
		Description: "Resolve the autonomous system hosting a domain.",
		InputType:   "Domain",
		OutputType:  "ASN",
		Key:         "domain",
		Icon:        "server",
		ParamsSchema: []ParamSpec{
			{
				Name:        "PDCP_API_KEY",
				Kind:        ParamVaultSecret,
				Required:    true,
				Description: "The ProjectDiscovery Cloud Platform API key for asnmap.",
			},
		},
		RequiredParams: true,
	}
}

func (e *DomainToASN) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *DomainToASN) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	apiKey := e.Secret("PDCP_API_KEY")
	results := []types.Entity{}
	for _, input := range inputs {
		domain := input.(*types.Domain)
		asn, err := asnmapLookup(ctx, e.Client, domain.Domain, apiKey)
		if err != nil {
			e.Logger.Error().Str("sketch_id", e.SketchID).Msgf("Error getting ASN for domain %s: %v", domain.Domain, err)
			continue
		}
		if asn == nil {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("No ASN data for domain %s", domain.Domain)
			continue
		}
		results = append(results, asn)
		e.Logger.Info().Str("sketch_id", e.SketchID).Msgf("Found AS%d (%s) for domain %s", asn.Number, asn.Name, domain.Domain)
	}
	return results, nil
}

func (e *DomainToASN) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for i, result := range results {
		if i >= len(inputs) {
			break
		}
		domain := inputs[i].(*types.Domain)
		asn := result.(*types.ASN)
		if err := e.CreateNode(ctx, domain); err != nil {
			return nil, err
		}
		if err := e.CreateNode(ctx, asn); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, domain, asn, "HOSTED_IN"); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("Domain %s is hosted in AS%d (%s)", domain.Domain, asn.Number, asn.Name))
	}
	return results, nil
}

// IPToASN resolves the autonomous system an IP address belongs to
type IPToASN struct {
	*Base
}

func (e *IPToASN) Descriptor() Descriptor {
	return Descriptor{
		Name:        "ip_to_asn",
		Category:    "Ip",
		Description: "Resolve the autonomous system an IP address belongs to.",
		InputType:   "Ip",
		OutputType:  "ASN",
		Key:         "address",
		Icon:        "server",
		ParamsSchema: []ParamSpec{
			{
				Name:        "PDCP_API_KEY",
				Kind:        ParamVaultSecret,
				Required:    true,
				Description: "The ProjectDiscovery Cloud Platform API key for asnmap.",
			},
		},
		RequiredParams: true,
	}
}

func (e *IPToASN) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Ip", raw)
}

func (e *IPToASN) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	apiKey := e.Secret("PDCP_API_KEY")
	results := []types.Entity{}
	for _, input := range inputs {
		ip := input.(*types.Ip)
		asn, err := asnmapLookup(ctx, e.Client, ip.Address, apiKey)
		if err != nil {
			e.Logger.Error().Str("sketch_id", e.SketchID).Msgf("Error getting ASN for IP %s: %v", ip.Address, err)
			continue
		}
		if asn == nil {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("No ASN data for IP %s", ip.Address)
			continue
		}
		results = append(results, asn)
		e.Logger.Info().Str("sketch_id", e.SketchID).Msgf("Found AS%d (%s) for IP %s", asn.Number, asn.Name, ip.Address)
	}
	return results, nil
}

func (e *IPToASN) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for i, result := range results {
		if i >= len(inputs) {
			break
		}
		ip := inputs[i].(*types.Ip)
		asn := result.(*types.ASN)
		if err := e.CreateNode(ctx, ip); err != nil {
			return nil, err
		}
		if err := e.CreateNode(ctx, asn); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, ip, asn, "BELONGS_TO"); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("IP %s belongs to AS%d (%s)", ip.Address, asn.Number, asn.Name))
	}
	return results, nil
}

func init() {
	Registry.Register((&DomainToASN{}).Descriptor(), func(base *Base) Enricher {
		return &DomainToASN{Base: base}
	})
	Registry.Register((&IPToASN{}).Descriptor(), func(base *Base) Enricher {
		return &IPToASN{Base: base}
	})
}
