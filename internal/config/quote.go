package config

import "github.com/spf13/pflag"

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Config

	Currency0    string
	Currency1    string
	Fee          uint32
	TickSpacing  int
	Hooks        string
	ExactOut     bool
	ZeroForOne   bool
	Amount       string
	SlippageBips int
	Recipient    string
	Block        uint64
	Plan         bool
	FromDB       bool
	ChainID      uint64
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		Config:       fromViper(v),
		Currency0:    v.GetString("currency0"),
		Currency1:    v.GetString("currency1"),
		Fee:          uint32(v.GetUint("fee")),
		TickSpacing:  v.GetInt("tick-spacing"),
		Hooks:        v.GetString("hooks"),
		ExactOut:     v.GetBool("exact-out"),
		ZeroForOne:   v.GetBool("zero-for-one"),
		Amount:       v.GetString("amount"),
		SlippageBips: v.GetInt("slippage-bips"),
		Recipient:    v.GetString("recipient"),
		Block:        v.GetUint64("block"),
		Plan:         v.GetBool("plan"),
		FromDB:       v.GetBool("from-db"),
		ChainID:      v.GetUint64("chain-id"),
	}

	return cfg, nil
}
