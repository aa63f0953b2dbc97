package models

type BoardOrder struct {
	Type   OrderType
	Price  float64
	Amount float64
}

type Board struct {
	Asks []BoardOrder
	Bids []BoardOrder
}

func (b *Board) BestAskPrice() float64 {
	best := 0.0
	for _, a := range b.Asks {
		if best == 0 || a.Price < best {
			best = a.Price
		}
	}
	return best
}

func (b *Board) BestBidPrice() float64 {
	best := 0.0
	for _, o := range b.Bids {
		if o.Price > best {
			best = o.Price
		}
	}
	return best
}
