package models

type Ticker struct {
	Pair   CurrencyPair
	Ask    float64
	Bid    float64
	Last   float64
	Volume float64
	High   float64
	Low    float64
}

type MarketInfo struct {
	Pair     CurrencyPair
	Rate     float64
	MinLimit float64
	MinerFee float64
}

type DepositInfo struct {
	Currency string
	Method   string
	Limit    float64 // 0 means no limit
	Fee      float64
}
