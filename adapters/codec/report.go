package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/cloudcopper/bcx/ports"
	"golang.org/x/text/encoding/charmap"
)

const reportDateFormat = "02.01.2006"

type finsta struct {
	XMLName xml.Name     `xml:"FINSTA"`
	Header  finstaHeader `xml:"FINSTA03"`
}

type finstaHeader struct {
	Account         string `xml:"S25_CISLO_UCTU"`
	Currency        string `xml:"S60_MENA"`
	StatementNumber string `xml:"S28_CISLO_VYPISU"`
	From            string `xml:"S60_DATUM"`
	To              string `xml:"S62_DATUM"`
	Opening         string `xml:"S60_CASTKA"`
	OpeningMark     string `xml:"S60_CD_INDIK"`
	Closing         string `xml:"S62_CASTKA"`
	ClosingMark     string `xml:"S62_CD_INDIK"`

	Entries []finstaEntry `xml:"FINSTA05"`
}

type finstaEntry struct {
	BookingDate    string `xml:"DPROCD"`
	ValueDate      string `xml:"S61_DATUM"`
	Mark           string `xml:"S61_CD_INDIK"`
	Amount         string `xml:"S61_CASTKA"`
	Currency       string `xml:"S61_MENA"`
	Account        string `xml:"PART_ACCNO"`
	Bank           string `xml:"PART_BANK_ID"`
	Name           string `xml:"PART_ACC_ID"`
	VariableSymbol string `xml:"S86_VARSYMOUR"`
	ConstantSymbol string `xml:"S86_KONSTSYM"`
	SpecificSymbol string `xml:"S86_SPECSYMOUR"`
	Reference      string `xml:"REF_TRANS_SYS"`
	Message        string `xml:"PART_MSG_1"`
}

// ReportReader parses xml account statement
type ReportReader struct {
	log ports.Logger
}

func NewReportReader(log ports.Logger) *ReportReader {
	log = log.With(slog.String("entity", "ReportReader"))
	return &ReportReader{log: log}
}

func (r *ReportReader) Read(data []byte) (models.Document, error) {
	doc := &finsta{}
	if err := newXMLDecoder(data).Decode(doc); err != nil {
		return nil, &errors.ParseError{Format: vo.FormatXmlReport, Msg: "invalid xml", Err: err}
	}
	h := doc.Header
	if h.Account == "" {
		return nil, &errors.ParseError{Format: vo.FormatXmlReport, Msg: "missing account"}
	}

	report := &models.Report{
		Account:         strings.TrimSpace(h.Account),
		Currency:        strings.ToUpper(strings.TrimSpace(h.Currency)),
		StatementNumber: strings.TrimSpace(h.StatementNumber),
	}
	var err error
	if report.From, err = parseReportDate(h.From); err != nil {
		return nil, reportError("S60_DATUM", err)
	}
	if report.To, err = parseReportDate(h.To); err != nil {
		return nil, reportError("S62_DATUM", err)
	}
	if report.OpeningBalance, err = parseBalance(h.Opening, h.OpeningMark, report.Currency); err != nil {
		return nil, reportError("S60_CASTKA", err)
	}
	if report.ClosingBalance, err = parseBalance(h.Closing, h.ClosingMark, report.Currency); err != nil {
		return nil, reportError("S62_CASTKA", err)
	}

	for i, e := range h.Entries {
		entry, err := reportEntry(e, report.Currency)
		if err != nil {
			return nil, &errors.ParseError{Format: vo.FormatXmlReport, Msg: fmt.Sprintf("entry %d", i+1), Err: err}
		}
		report.Entries = append(report.Entries, entry)
	}
	r.log.Debug("report parsed", slog.String("account", report.Account), slog.Int("entries", len(report.Entries)))
	return report, nil
}

func reportEntry(e finstaEntry, currency string) (models.ReportEntry, error) {
	if e.Currency != "" {
		currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	}
	amount, err := types.ParseMoney(e.Amount, currency)
	if err != nil {
		return models.ReportEntry{}, err
	}
	entry := models.ReportEntry{
		Credit:              strings.HasSuffix(strings.TrimSpace(e.Mark), "C"),
		Amount:              amount,
		CounterpartyAccount: strings.TrimSpace(e.Account),
		CounterpartyBank:    strings.TrimSpace(e.Bank),
		CounterpartyName:    strings.TrimSpace(e.Name),
		VariableSymbol:      strings.TrimSpace(e.VariableSymbol),
		ConstantSymbol:      strings.TrimSpace(e.ConstantSymbol),
		SpecificSymbol:      strings.TrimSpace(e.SpecificSymbol),
		Reference:           strings.TrimSpace(e.Reference),
		Message:             strings.TrimSpace(e.Message),
	}
	if entry.ValueDate, err = parseReportDate(e.ValueDate); err != nil {
		return entry, err
	}
	if entry.BookingDate, err = parseReportDate(e.BookingDate); err != nil {
		return entry, err
	}
	return entry, nil
}

func parseReportDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(reportDateFormat, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// parseBalance returns negative amount for debit mark
func parseBalance(amount, mark, currency string) (types.Money, error) {
	if strings.TrimSpace(amount) == "" {
		return types.NewMoney(0, currency), nil
	}
	m, err := types.ParseMoney(amount, currency)
	if err != nil {
		return m, err
	}
	if strings.TrimSpace(mark) == "D" && m.Minor > 0 {
		m.Minor = -m.Minor
	}
	return m, nil
}

func reportError(field string, err error) error {
	return &errors.ParseError{Format: vo.FormatXmlReport, Msg: "invalid " + field, Err: err}
}

// newXMLDecoder returns decoder accepting utf-8 and windows-1250 documents
func newXMLDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(label) {
		case "windows-1250", "cp1250":
			return charmap.Windows1250.NewDecoder().Reader(input), nil
		case "utf-8", "utf8":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return dec
}
