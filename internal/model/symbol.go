package model

import "github.com/shopspring/decimal"

type SymbolInfo struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

var KnownSymbols = map[string]SymbolInfo{
	"PETR4": {Name: "Petrobras", Color: "#2e5bff"},
	"VALE3": {Name: "Vale", Color: "#00c853"},
	"ITUB4": {Name: "Itaú Unibanco", Color: "#ff3d00"},
	"BBDC4": {Name: "Bradesco", Color: "#ff9800"},
	"ABEV3": {Name: "Ambev", Color: "#9c27b0"},
	"WEGE3": {Name: "WEG", Color: "#00bcd4"},
	"MGLU3": {Name: "Magazine Luiza", Color: "#e91e63"},
	"BBAS3": {Name: "Banco do Brasil", Color: "#4caf50"},
	"B3SA3": {Name: "B3", Color: "#ffc107"},
	"RENT3": {Name: "Localiza", Color: "#3f51b5"},
}

// FallbackPrices are last known demonstration prices used when neither the provider nor the cache has a value.
var FallbackPrices = map[string]decimal.Decimal{
	"PETR4": decimal.RequireFromString("32.85"),
	"VALE3": decimal.RequireFromString("69.50"),
	"ITUB4": decimal.RequireFromString("33.25"),
	"BBDC4": decimal.RequireFromString("14.30"),
	"ABEV3": decimal.RequireFromString("14.80"),
	"WEGE3": decimal.RequireFromString("36.90"),
	"MGLU3": decimal.RequireFromString("2.18"),
	"BBAS3": decimal.RequireFromString("56.60"),
	"B3SA3": decimal.RequireFromString("11.25"),
	"RENT3": decimal.RequireFromString("46.45"),
}

var PlaceholderPrice = decimal.NewFromInt(1)

var Palette = []string{
	"#2e5bff", "#00c853", "#ff3d00", "#ff9800", "#9c27b0",
	"#00bcd4", "#e91e63", "#4caf50", "#ffc107", "#3f51b5",
	"#795548", "#607d8b", "#8bc34a", "#ff5722", "#009688",
}
