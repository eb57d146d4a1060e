package model

// PoolRecord represents a pool metadata record for storage.
type PoolRecord struct {
	ChainID        uint64 `json:"chain_id"`
	PoolID         string `json:"pool_id"`
	Currency0      string `json:"currency0"`
	Currency1      string `json:"currency1"`
	Fee            uint32 `json:"fee"`
	TickSpacing    int32  `json:"tick_spacing"`
	Hooks          string `json:"hooks"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
}
