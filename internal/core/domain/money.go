package domain

// Currency identifies one of the two wallet currencies.
type Currency string

const (
	CurrencyNSL  Currency = "NSL"
	CurrencyUSDT Currency = "USDT"
)

// Valid reports whether the currency is one of the supported wallet currencies.
func (c Currency) Valid() bool {
	return c == CurrencyNSL || c == CurrencyUSDT
}

// Money is a discriminated currency+amount pair. Balance mutations always
// carry exactly one currency, never a partially-filled NSL/USDT pair.
type Money struct {
	Currency Currency `json:"currency"`
	Amount   float64  `json:"amount"`
}

// NSL builds an NSL-denominated amount.
func NSL(amount float64) Money {
	return Money{Currency: CurrencyNSL, Amount: amount}
}

// USDT builds a USDT-denominated amount.
func USDT(amount float64) Money {
	return Money{Currency: CurrencyUSDT, Amount: amount}
}

// Validate checks the pair is usable for a balance mutation.
func (m Money) Validate() error {
	if !m.Currency.Valid() {
		return ErrUnknownCurrency
	}
	if m.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Negate returns the same amount with the opposite sign.
func (m Money) Negate() Money {
	return Money{Currency: m.Currency, Amount: -m.Amount}
}
