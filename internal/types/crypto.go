package types

// CryptoWallet is a cryptocurrency wallet address
type CryptoWallet struct {
	Base
	Address string `json:"address" validate:"required,min=1"`
	Chain   string `json:"chain,omitempty"`
}

func (c *CryptoWallet) TypeName() string     { return "CryptoWallet" }
func (c *CryptoWallet) KeyField() string     { return "address" }
func (c *CryptoWallet) KeyValue() string     { return c.Address }
func (c *CryptoWallet) DisplayLabel() string { return labelOr(c.Label, c.Address) }

// CryptoWalletTransaction is a transfer between two wallets.
// Source and target become their own nodes; the transaction itself is kept
// as a relationship carrying scalar attributes.
type CryptoWalletTransaction struct {
	Base
	Hash            string        `json:"hash" validate:"required,min=1"`
	Source          *CryptoWallet `json:"source,omitempty"`
	Target          *CryptoWallet `json:"target,omitempty"`
	Value           string        `json:"value,omitempty"`
	ContractAddress string        `json:"contract_address,omitempty"`
	Timestamp       string        `json:"timestamp,omitempty"`
}

func (t *CryptoWalletTransaction) TypeName() string     { return "CryptoWalletTransaction" }
func (t *CryptoWalletTransaction) KeyField() string     { return "hash" }
func (t *CryptoWalletTransaction) KeyValue() string     { return t.Hash }
func (t *CryptoWalletTransaction) DisplayLabel() string { return labelOr(t.Label, t.Hash) }

func init() {
	Registry.Register(&Descriptor{
		Name:     "CryptoWallet",
		Category: "Crypto",
		KeyField: "address",
		Fields: []Field{
			{Name: "address", Type: "string", Required: true},
			{Name: "chain", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &CryptoWallet{} },
	})
	Registry.Register(&Descriptor{
		Name:     "CryptoWalletTransaction",
		Category: "Crypto",
		KeyField: "hash",
		Fields: []Field{
			{Name: "hash", Type: "string", Required: true},
			{Name: "source", Type: "CryptoWallet"},
			{Name: "target", Type: "CryptoWallet"},
			{Name: "value", Type: "string"},
			{Name: "contract_address", Type: "string"},
			{Name: "timestamp", Type: "string"},
			{Name: "label", Type: "string"},
		},
		New: func() Entity { return &CryptoWalletTransaction{} },
	})
}
