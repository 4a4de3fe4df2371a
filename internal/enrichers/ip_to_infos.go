package enrichers

import (
	"context"
	"fmt"

	"github.com/flowsint/flowsint/internal/types"
)

// IPToInfos geolocates IP addresses
type IPToInfos struct {
	*Base
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Country string  `json:"country"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	ISP     string  `json:"isp"`
	Message string  `json:"message"`
}

func (e *IPToInfos) Descriptor() Descriptor {
	return Descriptor{
		Name:        "ip_to_infos",
		Category:    "Ip",
		Description: "Geolocate an IP address.",
		InputType:   "Ip",
		OutputType:  "Ip",
		Key:         "address",
		Icon:        "map-pin",
	}
}

func (e *IPToInfos) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Ip", raw)
}

func (e *IPToInfos) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		ip := input.(*types.Ip)

		endpoint := fmt.Sprintf("http://ip-api.com/json/%s", ip.Address)
		var info ipAPIResponse
		if err := e.Client.GetJSON(ctx, endpoint, nil, &info); err != nil {
			e.Logger.Error().Str("sketch_id", e.SketchID).Msgf("Error geolocating %s: %v", ip.Address, err)
			continue
		}
		if info.Status != "success" {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("No geolocation for %s: %s", ip.Address, info.Message)
			continue
		}

		lat, lon := info.Lat, info.Lon
		results = append(results, &types.Ip{
			Address:   ip.Address,
			Country:   info.Country,
			City:      info.City,
			Latitude:  &lat,
			Longitude: &lon,
			ISP:       info.ISP,
		})
	}
	return results, nil
}

func (e *IPToInfos) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, result := range results {
		ip := result.(*types.Ip)
		// Merging on the same (type, key) enriches the existing node
		if err := e.CreateNode(ctx, ip); err != nil {
			return nil, err
		}
		e.LogGraphMessage(fmt.Sprintf("IP %s located in %s, %s (%s)", ip.Address, ip.City, ip.Country, ip.ISP))
	}
	return results, nil
}

func init() {
	Registry.Register((&IPToInfos{}).Descriptor(), func(base *Base) Enricher {
		return &IPToInfos{Base: base}
	})
}
