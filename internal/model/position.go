package model

import "github.com/shopspring/decimal"

// Position is a held quantity of one symbol. AvgPrice is invalid when the cost basis is unknown.
type Position struct {
	Code     string              `json:"code"`
	Name     string              `json:"name"`
	Quantity int64               `json:"quantity"`
	AvgPrice decimal.NullDecimal `json:"avgPrice"`
	Color    string              `json:"color"`
}

func (p Position) HasCost() bool {
	return p.AvgPrice.Valid
}
