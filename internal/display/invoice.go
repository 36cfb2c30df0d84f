package display

import (
	"billmail/internal/locale"
	"billmail/internal/types"
)

// Account is the display-ready projection of a billing account.
type Account struct {
	Name        string
	Email       string
	CompanyName string
	Address1    string
	Address2    string
	City        string
	State       string
	PostalCode  string
	Country     string
}

// Invoice is the display-ready projection of an invoice. All monetary and
// date fields are pre-formatted strings; templates only interpolate.
type Invoice struct {
	ID                  string
	Number              string
	DisplayName         string
	FormattedDate       string
	FormattedTargetDate string
	FormattedAmount     string
	FormattedPaid       string
	FormattedBalance    string
	Items               []InvoiceItem
}

// InvoiceItem is one display-ready invoice line.
type InvoiceItem struct {
	Description        string
	PlanName           string
	FormattedAmount    string
	FormattedStartDate string
	FormattedEndDate   string
}

// Payment is the display-ready projection of a payment transaction.
type Payment struct {
	FormattedAmount string
	FormattedDate   string
}

// Subscription is the display-ready projection of a subscription.
type Subscription struct {
	PlanName                  string
	ProductName               string
	FormattedCancellationDate string
	FormattedChargedThrough   string
}

// ForAccount projects an account for rendering.
func ForAccount(a *types.Account) *Account {
	name := a.Name
	if name == "" {
		name = a.CompanyName
	}
	return &Account{
		Name:        name,
		Email:       a.Email,
		CompanyName: a.CompanyName,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.Country,
	}
}

// ForInvoice projects an invoice into its display form for the locale.
// Item descriptions fall back to the plan name when empty.
func ForInvoice(inv *types.Invoice, loc locale.Locale) *Invoice {
	d := &Invoice{
		ID:                  inv.ID,
		Number:              inv.InvoiceNumber,
		FormattedDate:       FormatDate(inv.InvoiceDate, loc),
		FormattedTargetDate: FormatDate(inv.TargetDate, loc),
		FormattedAmount:     FormatAmount(inv.Amount, inv.Currency, loc),
		FormattedPaid:       FormatAmount(inv.PaidAmount, inv.Currency, loc),
		FormattedBalance:    FormatAmount(inv.BalanceAmount, inv.Currency, loc),
	}

	for _, item := range inv.Items {
		desc := item.Description
		if desc == "" {
			desc = item.PlanName
		}
		d.Items = append(d.Items, InvoiceItem{
			Description:        desc,
			PlanName:           item.PlanName,
			FormattedAmount:    FormatAmount(item.Amount, item.Currency, loc),
			FormattedStartDate: FormatDate(item.StartDate, loc),
			FormattedEndDate:   FormatDate(item.EndDate, loc),
		})
	}

	return d
}

// ForPayment projects a payment transaction into its display form.
func ForPayment(txn *types.PaymentTransaction, loc locale.Locale) *Payment {
	return &Payment{
		FormattedAmount: FormatAmount(txn.Amount, txn.Currency, loc),
		FormattedDate:   FormatDate(txn.EffectiveDate, loc),
	}
}

// ForSubscription projects a subscription into its display form.
func ForSubscription(sub *types.Subscription, loc locale.Locale) *Subscription {
	return &Subscription{
		PlanName:                  sub.PlanName,
		ProductName:               sub.ProductName,
		FormattedCancellationDate: FormatDate(sub.CancellationDate, loc),
		FormattedChargedThrough:   FormatDate(sub.ChargedThrough, loc),
	}
}
