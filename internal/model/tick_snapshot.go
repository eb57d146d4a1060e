package model

// TickSnapshot is one initialized tick's state captured at a block.
type TickSnapshot struct {
	ChainID            uint64 `json:"chain_id"`
	PoolID             string `json:"pool_id"`
	BlockNumber        uint64 `json:"block_number"`
	Tick               int32  `json:"tick"`
	LiquidityGross     string `json:"liquidity_gross"`
	LiquidityNet       string `json:"liquidity_net"`
	FeeGrowthOutside0  string `json:"fee_growth_outside0"`
	FeeGrowthOutside1  string `json:"fee_growth_outside1"`
}
