package payout

import (
	"encoding/json"

	"fincore/internal/domain"
)

// defaultCountry fills the gap when no source carries a recipient country.
const defaultCountry = "US"

// recipientSource is one tier of the resolution chain. Tiers run in priority
// order and each fills only the fields still blank, so the chain stays
// independently testable instead of a nest of conditionals.
type recipientSource func(payout *domain.PayoutRequest, tx *domain.Transaction) domain.Recipient

var recipientSources = []recipientSource{
	fromPayoutColumns,
	fromLegacyJSON,
	fromTransactionMetadata,
}

// ResolveRecipient assembles recipient fields with priority: dedicated payout
// columns, then legacy embedded JSON, then transaction metadata, then
// defaults.
func ResolveRecipient(payout *domain.PayoutRequest, tx *domain.Transaction) domain.Recipient {
	var resolved domain.Recipient
	for _, source := range recipientSources {
		merge(&resolved, source(payout, tx))
	}
	if resolved.Country == "" {
		resolved.Country = defaultCountry
	}
	return resolved
}

// Complete reports whether the fields the rail requires are present.
func Complete(r domain.Recipient) bool {
	return r.Name != "" && r.Account != "" && r.Bank != ""
}

func fromPayoutColumns(payout *domain.PayoutRequest, _ *domain.Transaction) domain.Recipient {
	return payout.Recipient
}

func fromLegacyJSON(payout *domain.PayoutRequest, _ *domain.Transaction) domain.Recipient {
	if len(payout.LegacyRecipient) == 0 {
		return domain.Recipient{}
	}
	var legacy domain.Recipient
	if err := json.Unmarshal(payout.LegacyRecipient, &legacy); err != nil {
		return domain.Recipient{}
	}
	return legacy
}

func fromTransactionMetadata(_ *domain.PayoutRequest, tx *domain.Transaction) domain.Recipient {
	if tx == nil || tx.Metadata == nil {
		return domain.Recipient{}
	}
	str := func(key string) string {
		if v, ok := tx.Metadata[key].(string); ok {
			return v
		}
		return ""
	}
	return domain.Recipient{
		Name:     str("recipientName"),
		Account:  str("recipientAccount"),
		Bank:     str("recipientBank"),
		BankCode: str("recipientBankCode"),
		Country:  str("recipientCountry"),
	}
}

func merge(dst *domain.Recipient, src domain.Recipient) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Account == "" {
		dst.Account = src.Account
	}
	if dst.Bank == "" {
		dst.Bank = src.Bank
	}
	if dst.BankCode == "" {
		dst.BankCode = src.BankCode
	}
	if dst.Country == "" {
		dst.Country = src.Country
	}
}

// currencyBySymbol translates settlement-asset symbols to the ISO codes the
// rail accepts; stablecoins map to their fiat peg.
var currencyBySymbol = map[string]string{
	"USDC":  "USD",
	"USDT":  "USD",
	"PYUSD": "USD",
	"EURC":  "EUR",
	"USD":   "USD",
	"EUR":   "EUR",
	"GBP":   "GBP",
}

// RailCurrency resolves the ISO currency for a payout, preferring the payout's
// own currency and falling back to the transaction's settlement asset.
func RailCurrency(payout *domain.PayoutRequest, tx *domain.Transaction) string {
	symbol := payout.Currency
	if symbol == "" && tx != nil {
		symbol = tx.SettlementAsset
	}
	if iso, ok := currencyBySymbol[symbol]; ok {
		return iso
	}
	return "USD"
}
