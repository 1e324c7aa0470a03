package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/go-playground/validator/v10"
)

const (
	MinPurposeLength            = 3
	MaxPurposeLength            = 140
	MaxOriginatorReference      = 16
	DefaultSepaPaymentDay       = "99"
	DefaultForeignPaymentCharge = "SHA"
)

// PaymentOrder is a single payment of a batch.
// Rail tells which of the detail parts is set.
type PaymentOrder struct {
	Rail              vo.Rail      `validate:"required,oneof=inland foreign sepa"`
	OriginatorAccount string       `validate:"required,max=34"`
	Amount            types.Money  `validate:"-"`
	Purpose           string       `validate:"required,max=140"`
	Counterparty      Counterparty `validate:"required"`

	Domestic *DomesticDetails `validate:"required_if=Rail inland"`
	Foreign  *ForeignDetails  `validate:"required_if=Rail foreign"`
	Sepa     *SepaDetails     `validate:"required_if=Rail sepa"`
}

type Counterparty struct {
	Name     string `validate:"required,max=70"`
	Account  string `validate:"required,max=34"` // account number or iban
	BankCode string `validate:"omitempty,numeric,len=4"`
	BIC      string `validate:"omitempty,bic"`
	Street   string `validate:"max=35"`
	City     string `validate:"max=35"`
	Country  string `validate:"omitempty,len=2,alpha"`
}

type DomesticDetails struct {
	VariableSymbol string `validate:"omitempty,numeric,max=10"`
	ConstantSymbol string `validate:"omitempty,numeric,max=4"`
	SpecificSymbol string `validate:"omitempty,numeric,max=10"`
	DueDate        time.Time
}

type ForeignDetails struct {
	Charges       string `validate:"oneof=SHA OUR BEN"`
	ExecutionDate time.Time
}

type SepaDetails struct {
	OriginatorReference string `validate:"max=16"`
	PaymentDay          string `validate:"required"`
}

// NewDomesticPayment creates inland rail payment
func NewDomesticPayment(originatorAccount string, amount types.Money, cp Counterparty, purpose string, details DomesticDetails) (*PaymentOrder, error) {
	details.VariableSymbol = strings.TrimSpace(details.VariableSymbol)
	details.ConstantSymbol = strings.TrimSpace(details.ConstantSymbol)
	details.SpecificSymbol = strings.TrimSpace(details.SpecificSymbol)
	p := &PaymentOrder{
		Rail:              vo.RailInland,
		OriginatorAccount: strings.TrimSpace(originatorAccount),
		Amount:            amount,
		Purpose:           purpose,
		Counterparty:      cleanCounterparty(cp),
		Domestic:          &details,
	}
	return p, p.Validate()
}

// NewForeignPayment creates foreign rail payment
func NewForeignPayment(originatorAccount string, amount types.Money, cp Counterparty, purpose string, details ForeignDetails) (*PaymentOrder, error) {
	details.Charges = strings.ToUpper(strings.TrimSpace(details.Charges))
	if details.Charges == "" {
		details.Charges = DefaultForeignPaymentCharge
	}
	p := &PaymentOrder{
		Rail:              vo.RailForeign,
		OriginatorAccount: strings.TrimSpace(originatorAccount),
		Amount:            amount,
		Purpose:           purpose,
		Counterparty:      cleanCounterparty(cp),
		Foreign:           &details,
	}
	return p, p.Validate()
}

// NewSepaPayment creates sepa rail payment.
// Originator reference is capped to 16 characters,
// empty payment day becomes 99.
func NewSepaPayment(originatorAccount string, amount types.Money, cp Counterparty, purpose string, details SepaDetails) (*PaymentOrder, error) {
	details.OriginatorReference = lib.Truncate(details.OriginatorReference, MaxOriginatorReference)
	if details.PaymentDay == "" {
		details.PaymentDay = DefaultSepaPaymentDay
	}
	cp = cleanCounterparty(cp)
	cp.Account = strings.ReplaceAll(cp.Account, " ", "")
	p := &PaymentOrder{
		Rail:              vo.RailSepa,
		OriginatorAccount: strings.TrimSpace(originatorAccount),
		Amount:            amount,
		Purpose:           purpose,
		Counterparty:      cp,
		Sepa:              &details,
	}
	return p, p.Validate()
}

func cleanCounterparty(cp Counterparty) Counterparty {
	cp.Name = strings.TrimSpace(cp.Name)
	cp.Account = strings.TrimSpace(cp.Account)
	cp.BankCode = strings.TrimSpace(cp.BankCode)
	cp.BIC = strings.ToUpper(strings.TrimSpace(cp.BIC))
	cp.Street = strings.TrimSpace(cp.Street)
	cp.City = strings.TrimSpace(cp.City)
	cp.Country = strings.ToUpper(strings.TrimSpace(cp.Country))
	return cp
}

// Validate checks payment invariants and returns *errors.ValidationError
func (p *PaymentOrder) Validate() error {
	if !p.Amount.IsPositive() {
		return &errors.ValidationError{Field: "amount", Value: p.Amount.Decimal(), Msg: "payment amount must be positive number"}
	}
	if p.Amount.Currency == "" {
		return &errors.ValidationError{Field: "currency", Msg: "payment currency is required"}
	}
	if utf8.RuneCountInString(p.Purpose) < MinPurposeLength {
		return &errors.ValidationError{Field: "purpose", Value: p.Purpose, Msg: fmt.Sprintf("purpose of the payment must contain at least %d characters", MinPurposeLength)}
	}
	if p.Rail == vo.RailSepa && !lib.IsIBAN(p.Counterparty.Account) {
		return &errors.ValidationError{Field: "counterparty.account", Value: p.Counterparty.Account, Msg: "not an iban"}
	}
	if p.Rail == vo.RailForeign && p.Counterparty.BIC == "" {
		return &errors.ValidationError{Field: "counterparty.bic", Msg: "required for foreign payment"}
	}
	return ValidateStruct(p)
}

// ValidateStruct runs struct tag validation and converts first
// failure to *errors.ValidationError
func ValidateStruct(s interface{}) error {
	err := lib.Validate.Struct(s)
	if err == nil {
		return nil
	}
	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		fe := ves[0]
		return &errors.ValidationError{
			Field: fe.Namespace(),
			Value: fmt.Sprint(fe.Value()),
			Msg:   fmt.Sprintf("failed on %q rule", fe.Tag()),
			Err:   err,
		}
	}
	return &errors.ValidationError{Msg: err.Error(), Err: err}
}

// Payments is a batch of payment orders
type Payments []*PaymentOrder

// CheckCurrency fails when batch mixes currencies
func (a Payments) CheckCurrency() error {
	for i, p := range a {
		if p == nil || a[0] == nil {
			continue
		}
		if !strings.EqualFold(p.Amount.Currency, a[0].Amount.Currency) {
			return &errors.ValidationError{
				Field: fmt.Sprintf("payments[%d].amount.currency", i),
				Value: p.Amount.Currency,
				Msg:   "batch currency is " + a[0].Amount.Currency,
				Err:   errors.ErrMixedCurrency,
			}
		}
	}
	return nil
}

// Total returns sum of amounts. Use CheckCurrency first.
func (a Payments) Total() types.Money {
	if len(a) == 0 {
		return types.Money{}
	}
	total := types.NewMoney(0, a[0].Amount.Currency)
	for _, p := range a {
		total = total.Add(p.Amount)
	}
	return total
}
