package model

import "time"

// QuoteRecord stores one simulated trade quote.
type QuoteRecord struct {
	ChainID        uint64    `json:"chain_id"`
	PoolID         string    `json:"pool_id"`
	TradeType      string    `json:"trade_type"`
	CurrencyIn     string    `json:"currency_in"`
	CurrencyOut    string    `json:"currency_out"`
	AmountIn       string    `json:"amount_in"`
	AmountOut      string    `json:"amount_out"`
	ExecutionPrice string    `json:"execution_price"`
	PriceImpact    string    `json:"price_impact"`
	BlockNumber    uint64    `json:"block_number"`
	QuotedAt       time.Time `json:"quoted_at"`
}
