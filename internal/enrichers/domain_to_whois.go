package enrichers

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowsint/flowsint/internal/types"
)

// DomainToWhois fetches domain registration data over RDAP
type DomainToWhois struct {
	*Base
}

type rdapResponse struct {
	Handle   string `json:"handle"`
	Events   []rdapEvent  `json:"events"`
	Entities []rdapEntity `json:"entities"`
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

type rdapEntity struct {
	Roles      []string        `json:"roles"`
	VcardArray []interface{}   `json:"vcardArray"`
	Entities   []rdapEntity    `json:"entities"`
}

func (e *DomainToWhois) Descriptor() Descriptor {
	return Descriptor{
		Name:        "domain_to_whois",
		Category:    "Domain",
		Description: "Fetch domain registration data via RDAP.",
		InputType:   "Domain",
		OutputType:  "Whois",
		Key:         "domain",
		Icon:        "file-text",
	}
}

func (e *DomainToWhois) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

// vcardText extracts the text value of the named property (e.g. "fn") from a
// jCard payload
func vcardText(vcard []interface{}, field string) string {
	if len(vcard) < 2 {
		return ""
	}
	props, ok := vcard[1].([]interface{})
	if !ok {
		return ""
	}
	for _, raw := range props {
		prop, ok := raw.([]interface{})
		if !ok || len(prop) < 4 {
			continue
		}
		name, _ := prop[0].(string)
		if name != field {
			continue
		}
		if value, ok := prop[3].(string); ok {
			return value
		}
	}
	return ""
}

func (r *rdapResponse) entityName(role string) string {
	var walk func(entities []rdapEntity) string
	walk = func(entities []rdapEntity) string {
		for _, entity := range entities {
			for _, r := range entity.Roles {
				if r == role {
					if name := vcardText(entity.VcardArray, "fn"); name != "" {
						return name
					}
				}
			}
			if name := walk(entity.Entities); name != "" {
				return name
			}
		}
		return ""
	}
	return walk(r.Entities)
}

func (r *rdapResponse) eventDate(action string) string {
	for _, event := range r.Events {
		if event.Action == action {
			return event.Date
		}
	}
	return ""
}

func (e *DomainToWhois) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	results := []types.Entity{}
	for _, input := range inputs {
		domain := input.(*types.Domain)

		endpoint := fmt.Sprintf("https://rdap.org/domain/%s", domain.Domain)
		var rdap rdapResponse
		if err := e.Client.GetJSON(ctx, endpoint, nil, &rdap); err != nil {
			e.Logger.Warn().Str("sketch_id", e.SketchID).Msgf("RDAP lookup failed for %s: %v", domain.Domain, err)
			continue
		}

		whois := &types.Whois{
			Domain:           domain,
			RegistryDomainID: rdap.Handle,
			Registrar:        rdap.entityName("registrar"),
			CreationDate:     rdap.eventDate("registration"),
			ExpirationDate:   rdap.eventDate("expiration"),
		}
		if org := rdap.entityName("registrant"); org != "" {
			whois.Organization = &types.Organization{Name: org}
		}
		results = append(results, whois)
	}
	return results, nil
}

func (e *DomainToWhois) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	for _, result := range results {
		whois := result.(*types.Whois)
		if err := e.CreateNode(ctx, whois.Domain); err != nil {
			return nil, err
		}
		// Nested entity fields are skipped by the writer and stored as their
		// own nodes here.
		if err := e.CreateNode(ctx, whois); err != nil {
			return nil, err
		}
		if err := e.CreateRelationship(ctx, whois.Domain, whois, "HAS_WHOIS"); err != nil {
			return nil, err
		}
		if whois.Organization != nil {
			if err := e.CreateNode(ctx, whois.Organization); err != nil {
				return nil, err
			}
			if err := e.CreateRelationship(ctx, whois.Organization, whois.Domain, "HAS_DOMAIN"); err != nil {
				return nil, err
			}
		}
		parts := []string{"registrar: " + whois.Registrar}
		if whois.Organization != nil {
			parts = append(parts, "org: "+whois.Organization.Name)
		}
		e.LogGraphMessage(fmt.Sprintf("WHOIS for %s -> %s", whois.Domain.Domain, strings.Join(parts, " ")))
	}
	return results, nil
}

func init() {
	Registry.Register((&DomainToWhois{}).Descriptor(), func(base *Base) Enricher {
		return &DomainToWhois{Base: base}
	})
}
