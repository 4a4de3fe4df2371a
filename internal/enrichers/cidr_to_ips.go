package enrichers

import (
	"context"
	"fmt"
	"net"

	"github.com/flowsint/flowsint/internal/types"
)

// cidrExpansionCap bounds the number of addresses expanded from one network
// so a /8 seed cannot flood the graph.
const cidrExpansionCap = 256

// CIDRToIPs expands a network range into its member addresses
type CIDRToIPs struct {
	*Base
}

func (e *CIDRToIPs) Descriptor() Descriptor {
	return Descriptor{
		Name:        "cidr_to_ips",
		Category:    "CIDR",
		Description: "Expand a network range into its member addresses.",
		InputType:   "CIDR",
		OutputType:  "Ip",
		Key:         "network",
		Icon:        "list",
	}
}

func (e *CIDRToIPs) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("CIDR", raw)
}

func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}

func (e *CIDRToIPs) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		cidr := input.(*types.CIDR)

		ip, network, err := net.ParseCIDR(cidr.Network)
		if err != nil {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("Unparseable CIDR %s: %v", cidr.Network, err)
			continue
		}

		count := 0
		for addr := ip.Mask(network.Mask); network.Contains(addr); addr = nextIP(addr) {
			if count >= cidrExpansionCap {
				e.Logger.Warn().Str("sketch_id", e.SketchID).
					Msgf("CIDR %s truncated at %d addresses", cidr.Network, cidrExpansionCap)
				break
			}
			results = append(results, &types.Ip{Address: addr.String()})
			count++
		}
	}
	return results, nil
}

func (e *CIDRToIPs) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, input := range inputs {
		cidr := input.(*types.CIDR)
		if err := e.CreateNode(ctx, cidr); err != nil {
			return nil, err
		}
		_, network, err := net.ParseCIDR(cidr.Network)
		if err != nil {
			continue
		}
		for _, result := range results {
			ip := result.(*types.Ip)
			if !network.Contains(net.ParseIP(ip.Address)) {
				continue
			}
			if err := e.CreateNode(ctx, ip); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, cidr, ip, "CONTAINS"); err != nil {
				return nil, err
			}
		}
		e.LogGraphMessage(fmt.Sprintf("Expanded %s", cidr.Network))
	}
	return results, nil
}

func init() {
	Registry.Register((&CIDRToIPs{}).Descriptor(), func(base *Base) Enricher {
		return &CIDRToIPs{Base: base}
	})
}
