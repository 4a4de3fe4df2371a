package types

import "fmt"

// Domain is a registered internet domain name
type Domain struct {
	Base
	Domain string `json:"domain" validate:"required,fqdn"`
	Root   string `json:"root,omitempty"`
}

func (d *Domain) TypeName() string     { return "Domain" }
func (d *Domain) KeyField() string     { return "domain" }
func (d *Domain) KeyValue() string     { return d.Domain }
func (d *Domain) DisplayLabel() string { return labelOr(d.Label, d.Domain) }

// Ip is an IPv4 or IPv6 address, optionally carrying geolocation data
type Ip struct {
	Base
	Address   string   `json:"address" validate:"required,ip"`
	Version   int      `json:"version,omitempty"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	ISP       string   `json:"isp,omitempty"`
}

func (i *Ip) TypeName() string     { return "Ip" }
func (i *Ip) KeyField() string     { return "address" }
func (i *Ip) KeyValue() string     { return i.Address }
func (i *Ip) DisplayLabel() string { return labelOr(i.Label, i.Address) }

// ASN is an autonomous system number
type ASN struct {
	Base
	Number      int    `json:"number" validate:"required,gt=0"`
	Name        string `json:"name,omitempty"`
	Country     string `json:"country,omitempty"`
	Description string `json:"description,omitempty"`
}

func (a *ASN) TypeName() string { return "ASN" }
func (a *ASN) KeyField() string { return "number" }
func (a *ASN) KeyValue() string { return fmt.Sprintf("%d", a.Number) }
func (a *ASN) DisplayLabel() string {
	return labelOr(a.Label, fmt.Sprintf("AS%d", a.Number))
}

// CIDR is a network range in CIDR notation
type CIDR struct {
	Base
	Network string `json:"network" validate:"required,cidr"`
}

func (c *CIDR) TypeName() string     { return "CIDR" }
func (c *CIDR) KeyField() string     { return "network" }
func (c *CIDR) KeyValue() string     { return c.Network }
func (c *CIDR) DisplayLabel() string { return labelOr(c.Label, c.Network) }

// Port is an open network port discovered on a host
type Port struct {
	Base
	Number   int    `json:"number" validate:"required,gt=0,lte=65535"`
	Protocol string `json:"protocol,omitempty"`
	State    string `json:"state,omitempty"`
	Service  string `json:"service,omitempty"`
	Banner   string `json:"banner,omitempty"`
}

func (p *Port) TypeName() string { return "Port" }
func (p *Port) KeyField() string { return "number" }
func (p *Port) KeyValue() string { return fmt.Sprintf("%d", p.Number) }
func (p *Port) DisplayLabel() string {
	return labelOr(p.Label, fmt.Sprintf("%d/%s", p.Number, p.Protocol))
}

// Website is a reachable web property identified by its URL
type Website struct {
	Base
	URL   string `json:"url" validate:"required,url"`
	Title string `json:"title,omitempty"`
}

func (w *Website) TypeName() string     { return "Website" }
func (w *Website) KeyField() string     { return "url" }
func (w *Website) KeyValue() string     { return w.URL }
func (w *Website) DisplayLabel() string { return labelOr(w.Label, w.URL) }

func init() {
	Registry.Register(&Descriptor{
		Name:     "Domain",
		Category: "Infrastructure",
		KeyField: "domain",
		Fields: []Field{
			{Name: "domain", Type: "string", Required: true, Description: "Fully qualified domain name"},
			{Name: "root", Type: "string", Description: "Registrable root of the domain"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Domain{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Ip",
		Category: "Infrastructure",
		KeyField: "address",
		Fields: []Field{
			{Name: "address", Type: "string", Required: true, Description: "IPv4 or IPv6 address"},
			{Name: "version", Type: "number"},
			{Name: "country", Type: "string"},
			{Name: "city", Type: "string"},
			{Name: "latitude", Type: "number"},
			{Name: "longitude", Type: "number"},
			{Name: "isp", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Ip{} },
	})
	Registry.Register(&Descriptor{
		Name:     "ASN",
		Category: "Infrastructure",
		KeyField: "number",
		Fields: []Field{
			{Name: "number", Type: "number", Required: true, Description: "Autonomous system number"},
			{Name: "name", Type: "string"},
			{Name: "country", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &ASN{} },
	})
	Registry.Register(&Descriptor{
		Name:     "CIDR",
		Category: "Infrastructure",
		KeyField: "network",
		Fields: []Field{
			{Name: "network", Type: "string", Required: true, Description: "Network range in CIDR notation"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &CIDR{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Port",
		Category: "Infrastructure",
		KeyField: "number",
		Fields: []Field{
			{Name: "number", Type: "number", Required: true},
			{Name: "protocol", Type: "string"},
			{Name: "state", Type: "string"},
			{Name: "service", Type: "string"},
			{Name: "banner", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Port{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Website",
		Category: "Infrastructure",
		KeyField: "url",
		Fields: []Field{
			{Name: "url", Type: "url", Required: true},
			{Name: "title", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Website{} },
	})
}
