package types

// Whois is a WHOIS/RDAP registration record for a domain.
// The nested Domain, Organization and Email fields become separate graph
// nodes; they are never stored as node properties.
type Whois struct {
	Base
	Domain           *Domain       `json:"domain" validate:"required"`
	RegistryDomainID string        `json:"registry_domain_id,omitempty"`
	Registrar        string        `json:"registrar,omitempty"`
	Organization     *Organization `json:"organization,omitempty"`
	Email            *Email        `json:"email,omitempty"`
	City             string        `json:"city,omitempty"`
	Country          string        `json:"country,omitempty"`
	CreationDate     string        `json:"creation_date,omitempty"`
	ExpirationDate   string        `json:"expiration_date,omitempty"`
}

func (w *Whois) TypeName() string { return "Whois" }
func (w *Whois) KeyField() string { return "domain" }
func (w *Whois) KeyValue() string {
	if w.Domain != nil {
		return w.Domain.Domain
	}
	return ""
}
func (w *Whois) DisplayLabel() string {
	return labelOr(w.Label, "whois:"+w.KeyValue())
}

// Gravatar is a Gravatar profile discovered for an email address
type Gravatar struct {
	Base
	Hash        string `json:"hash" validate:"required,min=1"`
	Src         string `json:"src,omitempty"`
	ProfileURL  string `json:"profile_url,omitempty"`
	Exists      bool   `json:"exists"`
	DisplayName string `json:"display_name,omitempty"`
	AboutMe     string `json:"about_me,omitempty"`
	Location    string `json:"location,omitempty"`
}

func (g *Gravatar) TypeName() string     { return "Gravatar" }
func (g *Gravatar) KeyField() string     { return "hash" }
func (g *Gravatar) KeyValue() string     { return g.Hash }
func (g *Gravatar) DisplayLabel() string { return labelOr(g.Label, "gravatar:"+g.Hash) }

func init() {
	Registry.Register(&Descriptor{
		Name:     "Whois",
		Category: "Records",
		KeyField: "domain",
		Fields: []Field{
			{Name: "domain", Type: "Domain", Required: true},
			{Name: "registry_domain_id", Type: "string"},
			{Name: "registrar", Type: "string"},
			{Name: "organization", Type: "Organization"},
			{Name: "email", Type: "Email"},
			{Name: "city", Type: "string"},
			{Name: "country", Type: "string"},
			{Name: "creation_date", Type: "string"},
			{Name: "expiration_date", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Whois{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Gravatar",
		Category: "Records",
		KeyField: "hash",
		Fields: []Field{
			{Name: "hash", Type: "string", Required: true},
			{Name: "src", Type: "url"},
			{Name: "profile_url", Type: "url"},
			{Name: "exists", Type: "boolean"},
			{Name: "display_name", Type: "string"},
			{Name: "about_me", Type: "string"},
			{Name: "location", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Gravatar{} },
	})
}
