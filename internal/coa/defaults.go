// Package coa carries the curated default chart-of-accounts skeleton used
// by the dev seed and by tests. One NodeDef tree exists per account type;
// SystemAccountDefs lists the reserved accounts attached to it.
package coa

import "github.com/ledgerline/bookkeeper/internal/ledger"

// NodeDef describes one default classification node and its children.
type NodeDef struct {
	Name     string
	Children []NodeDef
}

// AccountDef describes one default account placed under a chart node.
type AccountDef struct {
	Name   string
	Type   ledger.AccountType
	Chart  string // name of the node the account attaches to
	System bool
}

var curated = map[ledger.AccountType]NodeDef{
	ledger.AccountTypeAsset: {
		Name: "Assets",
		Children: []NodeDef{
			{Name: "Current Assets", Children: []NodeDef{
				{Name: "Cash and Bank"},
				{Name: "Receivables"},
			}},
			{Name: "Fixed Assets", Children: []NodeDef{
				{Name: "Property"},
			}},
		},
	},
	ledger.AccountTypeLiability: {
		Name: "Liabilities",
		Children: []NodeDef{
			{Name: "Current Liabilities", Children: []NodeDef{
				{Name: "Payables"},
				{Name: "Taxes Payable"},
			}},
			{Name: "Long-term Liabilities"},
		},
	},
	ledger.AccountTypeEquity: {
		Name: "Equity",
		Children: []NodeDef{
			{Name: "Contributed Capital"},
			{Name: "Retained Earnings"},
		},
	},
	ledger.AccountTypeIncome: {
		Name: "Income",
		Children: []NodeDef{
			{Name: "Sales"},
			{Name: "Other Income"},
		},
	},
	ledger.AccountTypeExpense: {
		Name: "Expenses",
		Children: []NodeDef{
			{Name: "Operating Expenses"},
			{Name: "Cost of Goods Sold"},
			{Name: "Other Expenses"},
		},
	},
}

// SystemAccountDefs lists the reserved accounts the seed attaches to the
// default skeleton. Names match config.DefaultSystemAccounts.
var SystemAccountDefs = []AccountDef{
	{Name: "Bank", Type: ledger.AccountTypeAsset, Chart: "Cash and Bank", System: true},
	{Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, Chart: "Receivables", System: true},
	{Name: "Accounts Payable", Type: ledger.AccountTypeLiability, Chart: "Payables", System: true},
	{Name: "Sales Tax", Type: ledger.AccountTypeLiability, Chart: "Taxes Payable", System: true},
	{Name: "Capital", Type: ledger.AccountTypeEquity, Chart: "Contributed Capital", System: true},
	{Name: "Retained Earnings", Type: ledger.AccountTypeEquity, Chart: "Retained Earnings", System: true},
	{Name: "FX Gain/Loss", Type: ledger.AccountTypeIncome, Chart: "Other Income", System: true},
}

// DefaultTree returns the default skeleton for the account type.
func DefaultTree(t ledger.AccountType) (NodeDef, bool) {
	def, ok := curated[t]
	return def, ok
}
