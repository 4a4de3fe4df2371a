package types

import "strings"

// Email is an email address
type Email struct {
	Base
	Email string `json:"email" validate:"required,email"`
}

func (e *Email) TypeName() string     { return "Email" }
func (e *Email) KeyField() string     { return "email" }
func (e *Email) KeyValue() string     { return e.Email }
func (e *Email) DisplayLabel() string { return labelOr(e.Label, e.Email) }

// Phone is a phone number in international notation
type Phone struct {
	Base
	Number  string `json:"number" validate:"required,e164"`
	Country string `json:"country,omitempty"`
	Carrier string `json:"carrier,omitempty"`
}

func (p *Phone) TypeName() string     { return "Phone" }
func (p *Phone) KeyField() string     { return "number" }
func (p *Phone) KeyValue() string     { return p.Number }
func (p *Phone) DisplayLabel() string { return labelOr(p.Label, p.Number) }

// Username is a handle not yet bound to a specific platform
type Username struct {
	Base
	Username string `json:"username" validate:"required,min=1"`
}

func (u *Username) TypeName() string     { return "Username" }
func (u *Username) KeyField() string     { return "username" }
func (u *Username) KeyValue() string     { return u.Username }
func (u *Username) DisplayLabel() string { return labelOr(u.Label, u.Username) }

// SocialAccount is a username found on a concrete platform
type SocialAccount struct {
	Base
	Username string `json:"username" validate:"required,min=1"`
	Platform string `json:"platform" validate:"required,min=1"`
	URL      string `json:"url,omitempty"`
}

func (s *SocialAccount) TypeName() string { return "SocialAccount" }
func (s *SocialAccount) KeyField() string { return "url" }
func (s *SocialAccount) KeyValue() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Platform + "/" + s.Username
}
func (s *SocialAccount) DisplayLabel() string {
	return labelOr(s.Label, s.Username+" @ "+s.Platform)
}

// Individual is a natural person
type Individual struct {
	Base
	FullName  string `json:"full_name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (i *Individual) TypeName() string { return "Individual" }
func (i *Individual) KeyField() string { return "full_name" }
func (i *Individual) KeyValue() string {
	if i.FullName != "" {
		return i.FullName
	}
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}
func (i *Individual) DisplayLabel() string { return labelOr(i.Label, i.KeyValue()) }

// Organization is a company or other legal entity
type Organization struct {
	Base
	Name    string `json:"name" validate:"required,min=1"`
	Country string `json:"country,omitempty"`
	Website string `json:"website,omitempty"`
}

func (o *Organization) TypeName() string     { return "Organization" }
func (o *Organization) KeyField() string     { return "name" }
func (o *Organization) KeyValue() string     { return o.Name }
func (o *Organization) DisplayLabel() string { return labelOr(o.Label, o.Name) }

// Phrase is free text extracted from a source
type Phrase struct {
	Base
	Text string `json:"text" validate:"required,min=1"`
}

func (p *Phrase) TypeName() string { return "Phrase" }
func (p *Phrase) KeyField() string { return "text" }
func (p *Phrase) KeyValue() string { return p.Text }
func (p *Phrase) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	if len(p.Text) > 60 {
		return p.Text[:60] + "..."
	}
	return p.Text
}

func init() {
	Registry.Register(&Descriptor{
		Name:     "Email",
		Category: "Identity",
		KeyField: "email",
		Fields: []Field{
			{Name: "email", Type: "string", Required: true},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Email{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Phone",
		Category: "Identity",
		KeyField: "number",
		Fields: []Field{
			{Name: "number", Type: "string", Required: true, Description: "Phone number in E.164 notation"},
			{Name: "country", Type: "string"},
			{Name: "carrier", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Phone{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Username",
		Category: "Identity",
		KeyField: "username",
		Fields: []Field{
			{Name: "username", Type: "string", Required: true},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Username{} },
	})
	Registry.Register(&Descriptor{
		Name:     "SocialAccount",
		Category: "Identity",
		KeyField: "url",
		Fields: []Field{
			{Name: "username", Type: "string", Required: true},
			{Name: "platform", Type: "string", Required: true},
			{Name: "url", Type: "url"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &SocialAccount{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Individual",
		Category: "Identity",
		KeyField: "full_name",
		Fields: []Field{
			{Name: "full_name", Type: "string"},
			{Name: "first_name", Type: "string"},
			{Name: "last_name", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Individual{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Organization",
		Category: "Identity",
		KeyField: "name",
		Fields: []Field{
			{Name: "name", Type: "string", Required: true},
			{Name: "country", Type: "string"},
			{Name: "website", Type: "url"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Organization{} },
	})
	Registry.Register(&Descriptor{
		Name:     "Phrase",
		Category: "Identity",
		KeyField: "text",
		Fields: []Field{
			{Name: "text", Type: "string", Required: true},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &Phrase{} },
	})
}
