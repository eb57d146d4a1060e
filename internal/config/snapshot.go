package config

import "github.com/spf13/pflag"

// SnapshotConfig holds configuration for the snapshot command.
type SnapshotConfig struct {
	Config

	Currency0   string
	Currency1   string
	Fee         uint32
	TickSpacing int
	Hooks       string
	Block       uint64
	ChainID     uint64
}

// LoadSnapshot merges config file, environment variables, and flags into SnapshotConfig.
func LoadSnapshot(cfgFile string, flags *pflag.FlagSet) (SnapshotConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SnapshotConfig{}, err
	}

	cfg := SnapshotConfig{
		Config:      fromViper(v),
		Currency0:   v.GetString("currency0"),
		Currency1:   v.GetString("currency1"),
		Fee:         uint32(v.GetUint("fee")),
		TickSpacing: v.GetInt("tick-spacing"),
		Hooks:       v.GetString("hooks"),
		Block:       v.GetUint64("block"),
		ChainID:     v.GetUint64("chain-id"),
	}

	return cfg, nil
}
