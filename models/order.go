package models

import "time"

type OrderType int

const (
	Ask OrderType = iota
	Bid
)

func (t OrderType) String() string {
	if t == Ask {
		return "ask"
	}
	return "bid"
}

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusClosed   OrderStatus = "closed"
	OrderStatusCanceled OrderStatus = "canceled"
)

type Order struct {
	ExchangeOrderID string
	Type            OrderType
	Trading         string
	Settlement      string
	Price           float64
	Amount          float64
	Status          OrderStatus
	Timestamp       time.Time
}
