package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/xuri/excelize/v2"
)

// FormatSheet is csv or xlsx payment sheet
const FormatSheet vo.FileFormat = "SHEET"

// Sheet columns. Header names are matched case-insensitively,
// spaces and underscores are ignored.
const (
	ColRail       = "rail"
	ColOriginator = "originator"
	ColAmount     = "amount"
	ColCurrency   = "currency"
	ColPurpose    = "purpose"
	ColName       = "name"
	ColAccount    = "account"
	ColBankCode   = "bankcode"
	ColBIC        = "bic"
	ColStreet     = "street"
	ColCity       = "city"
	ColCountry    = "country"
	ColVS         = "vs"
	ColKS         = "ks"
	ColSS         = "ss"
	ColDate       = "date"
	ColCharges    = "charges"
	ColReference  = "reference"
	ColPaymentDay = "paymentday"
)

// DecodePayments reads payment orders from csv or xlsx sheet.
// Rows without rail column use defaultRail.
func DecodePayments(data []byte, defaultRail vo.Rail) (models.Payments, error) {
	var rows [][]string
	var err error
	if isExcelFile(data) {
		rows, err = excelRows(data)
	} else {
		rows, err = csvRows(data)
	}
	if err != nil {
		return nil, &errors.ParseError{Format: FormatSheet, Msg: "unable to read sheet", Err: err}
	}
	if len(rows) < 2 {
		return nil, &errors.ValidationError{Field: "sheet", Msg: "header row and at least one payment row expected", Err: errors.ErrNoPayments}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = normalizeColumn(h)
	}
	payments := models.Payments{}
	for i, row := range rows[1:] {
		record := Record{}
		empty := true
		for j, v := range row {
			if j < len(header) {
				record[header[j]] = strings.TrimSpace(v)
				empty = empty && record[header[j]] == ""
			}
		}
		if empty {
			continue
		}
		p, err := paymentFromRecord(record, defaultRail)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		payments = append(payments, p)
	}
	if len(payments) == 0 {
		return nil, &errors.ValidationError{Field: "sheet", Msg: "no payment rows", Err: errors.ErrNoPayments}
	}
	return payments, nil
}

func normalizeColumn(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
}

func paymentFromRecord(r Record, defaultRail vo.Rail) (*models.PaymentOrder, error) {
	rail := vo.Rail(strings.ToLower(r[ColRail]))
	if rail == "" {
		rail = defaultRail
	}
	amount, err := types.ParseMoney(r[ColAmount], r[ColCurrency])
	if err != nil {
		return nil, &errors.ValidationError{Field: ColAmount, Value: r[ColAmount], Msg: err.Error(), Err: err}
	}
	date, err := parseSheetDate(r[ColDate])
	if err != nil {
		return nil, &errors.ValidationError{Field: ColDate, Value: r[ColDate], Msg: "invalid date", Err: err}
	}
	cp := models.Counterparty{
		Name:     r[ColName],
		Account:  r[ColAccount],
		BankCode: r[ColBankCode],
		BIC:      r[ColBIC],
		Street:   r[ColStreet],
		City:     r[ColCity],
		Country:  r[ColCountry],
	}
	switch rail {
	case vo.RailInland:
		return models.NewDomesticPayment(r[ColOriginator], amount, cp, r[ColPurpose], models.DomesticDetails{
			VariableSymbol: r[ColVS],
			ConstantSymbol: r[ColKS],
			SpecificSymbol: r[ColSS],
			DueDate:        date,
		})
	case vo.RailForeign:
		return models.NewForeignPayment(r[ColOriginator], amount, cp, r[ColPurpose], models.ForeignDetails{
			Charges:       r[ColCharges],
			ExecutionDate: date,
		})
	case vo.RailSepa:
		return models.NewSepaPayment(r[ColOriginator], amount, cp, r[ColPurpose], models.SepaDetails{
			OriginatorReference: r[ColReference],
			PaymentDay:          r[ColPaymentDay],
		})
	}
	return nil, &errors.ValidationError{Field: ColRail, Value: string(rail), Msg: "unknown rail"}
}

func parseSheetDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "1/2/06", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date format %q", s)
}

func csvRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if first, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		reader.Comma = ';'
	}
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func excelRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found")
	}
	return f.GetRows(sheet)
}

// isExcelFile checks zip magic of xlsx
func isExcelFile(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
