package models

import (
	"testing"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/stretchr/testify/require"
)

func TestNewSepaPayment(t *testing.T) {
	assert := require.New(t)
	p, err := NewSepaPayment(
		"  CZ6508000000192000145399 ",
		types.NewMoney(1250, "eur"),
		Counterparty{Name: " Muster GmbH ", Account: " DE89 3704 0044 0532 0130 00 ", BIC: "cobadeffxxx"},
		"Invoice 2024/17",
		SepaDetails{OriginatorReference: "REF-0123456789-ABCDEF"},
	)
	assert.NoError(err)
	assert.Equal(vo.RailSepa, p.Rail)
	assert.Equal("CZ6508000000192000145399", p.OriginatorAccount)
	assert.Equal("DE89370400440532013000", p.Counterparty.Account)
	assert.Equal("Muster GmbH", p.Counterparty.Name)
	assert.Equal("COBADEFFXXX", p.Counterparty.BIC)
	assert.Equal("REF-0123456789-A", p.Sepa.OriginatorReference)
	assert.Equal(DefaultSepaPaymentDay, p.Sepa.PaymentDay)
	assert.Equal("EUR", p.Amount.Currency)
}

func TestPaymentInvariants(t *testing.T) {
	cp := Counterparty{Name: "Firma s.r.o.", Account: "19-2000145399", BankCode: "0800"}
	testCases := []struct {
		desc   string
		amount types.Money
		cp     Counterparty
		text   string
		field  string
	}{
		{desc: "zero amount", amount: types.NewMoney(0, "CZK"), cp: cp, text: "rent", field: "amount"},
		{desc: "negative amount", amount: types.NewMoney(-100, "CZK"), cp: cp, text: "rent", field: "amount"},
		{desc: "short purpose", amount: types.NewMoney(100, "CZK"), cp: cp, text: "ab", field: "purpose"},
		{desc: "bad bank code", amount: types.NewMoney(100, "CZK"), cp: Counterparty{Name: "X", Account: "1", BankCode: "08"}, text: "rent", field: "PaymentOrder.Counterparty.BankCode"},
		{desc: "bad variable symbol", amount: types.NewMoney(100, "CZK"), cp: cp, text: "rent", field: "PaymentOrder.Domestic.VariableSymbol"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert := require.New(t)
			details := DomesticDetails{VariableSymbol: "2024001"}
			if tC.desc == "bad variable symbol" {
				details.VariableSymbol = "12345678901"
			}
			_, err := NewDomesticPayment("19-2000145399", tC.amount, tC.cp, tC.text, details)
			assert.ErrorIs(err, errors.ErrValidation)
			var ve *errors.ValidationError
			assert.ErrorAs(err, &ve)
			assert.Equal(tC.field, ve.Field)
		})
	}
}

func TestForeignPaymentDefaults(t *testing.T) {
	assert := require.New(t)
	cp := Counterparty{Name: "Acme Ltd", Account: "GB29NWBK60161331926819", BIC: "NWBKGB2L", Country: "gb"}
	p, err := NewForeignPayment("CZ6508000000192000145399", types.NewMoney(99900, "usd"), cp, "consulting", ForeignDetails{})
	assert.NoError(err)
	assert.Equal(DefaultForeignPaymentCharge, p.Foreign.Charges)
	assert.Equal("GB", p.Counterparty.Country)

	cp.BIC = ""
	_, err = NewForeignPayment("CZ6508000000192000145399", types.NewMoney(99900, "usd"), cp, "consulting", ForeignDetails{})
	assert.ErrorIs(err, errors.ErrValidation)
}

func TestPaymentsTotal(t *testing.T) {
	assert := require.New(t)
	a := Payments{
		{Amount: types.NewMoney(100, "CZK")},
		{Amount: types.NewMoney(250, "CZK")},
	}
	assert.Equal(types.NewMoney(350, "CZK"), a.Total())
	assert.Equal(types.Money{}, Payments{}.Total())
}

func TestPaymentsCheckCurrency(t *testing.T) {
	assert := require.New(t)
	a := Payments{
		{Amount: types.NewMoney(100, "CZK")},
		{Amount: types.NewMoney(250, "czk")},
	}
	assert.NoError(a.CheckCurrency())
	assert.NoError(Payments{}.CheckCurrency())

	a = append(a, &PaymentOrder{Amount: types.NewMoney(100, "EUR")})
	err := a.CheckCurrency()
	assert.ErrorIs(err, errors.ErrValidation)
	assert.ErrorIs(err, errors.ErrMixedCurrency)
	assert.Contains(err.Error(), "payments[2].amount.currency")
}
