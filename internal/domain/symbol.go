package domain

import (
	"strings"
)

// InstrumentTypeEquity is the provider instrument type accepted by the resolver
const InstrumentTypeEquity = "EQUITY"

// Symbol is a validated, canonical ticker
type Symbol struct {
	Symbol   string
	Name     string
	Exchange string
}

// SymbolMatch is a raw search candidate returned by the quote provider
type SymbolMatch struct {
	Symbol    string
	ShortName string
	LongName  string
	Exchange  string
	QuoteType string
	Score     float64
}

// DisplayName prefers the short name, then the long name, then the ticker
func (m SymbolMatch) DisplayName() string {
	if strings.TrimSpace(m.ShortName) != "" {
		return m.ShortName
	}
	if strings.TrimSpace(m.LongName) != "" {
		return m.LongName
	}
	return m.Symbol
}

// Canonical converts the candidate into a Symbol
func (m SymbolMatch) Canonical() Symbol {
	return Symbol{
		Symbol:   m.Symbol,
		Name:     m.DisplayName(),
		Exchange: m.Exchange,
	}
}
