package config

import "github.com/spf13/pflag"

// MintConfig holds configuration for the mint command.
type MintConfig struct {
	Config

	Currency0    string
	Currency1    string
	Fee          uint32
	TickSpacing  int
	Hooks        string
	TickLower    int
	TickUpper    int
	Amount0      string
	Amount1      string
	SlippageBips int
	Owner        string
	Deadline     uint64
	Block        uint64
}

// LoadMint merges config file, environment variables, and flags into MintConfig.
func LoadMint(cfgFile string, flags *pflag.FlagSet) (MintConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return MintConfig{}, err
	}

	cfg := MintConfig{
		Config:       fromViper(v),
		Currency0:    v.GetString("currency0"),
		Currency1:    v.GetString("currency1"),
		Fee:          uint32(v.GetUint("fee")),
		TickSpacing:  v.GetInt("tick-spacing"),
		Hooks:        v.GetString("hooks"),
		TickLower:    v.GetInt("tick-lower"),
		TickUpper:    v.GetInt("tick-upper"),
		Amount0:      v.GetString("amount0"),
		Amount1:      v.GetString("amount1"),
		SlippageBips: v.GetInt("slippage-bips"),
		Owner:        v.GetString("owner"),
		Deadline:     v.GetUint64("deadline"),
		Block:        v.GetUint64("block"),
	}

	return cfg, nil
}
