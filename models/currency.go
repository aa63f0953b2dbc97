package models

type CurrencyPair struct {
	Trading    string `json:"trading"`
	Settlement string `json:"settlement"`
}

func (p CurrencyPair) String() string {
	return p.Trading + "/" + p.Settlement
}

type Coin struct {
	Name     string // exchange-internal name, e.g. "XXBT"
	Symbol   string // "BTC"
	Decimals int64
}
