package fakebank

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/random"
	"github.com/cloudcopper/bcx/lib/types"
	"golang.org/x/text/encoding/charmap"
)

const reportDateFormat = "02.01.2006"

var currencies = []string{"CZK", "CZK", "CZK", "EUR"}

type movement struct {
	credit  bool
	amount  types.Money
	account string
	name    string
	vs      string
	message string
}

func randomMovements(currency string) []movement {
	n := random.Between(1, 8)
	mm := make([]movement, 0, n)
	for x := 0; x < n; x++ {
		mm = append(mm, movement{
			credit:  random.Credit(),
			amount:  types.NewMoney(random.Minor(100, 5000000), currency),
			account: random.Account(),
			name:    random.Name(1, 3),
			vs:      random.Digits(10),
			message: random.Words(2, 6),
		})
	}
	return mm
}

// RandomAdvice returns MT942 advice encoded in windows-1250
func RandomAdvice(now time.Time) []byte {
	currency := random.Pick(currencies)
	account := random.Digits(12)
	lines := []string{
		"{1:F01CEKOCZPPAXXX0000000000}{2:O942" + now.Format("1504060102") + "CEKOCZPPAXXX00000000000000000000N}{4:",
		":20:ADV-" + now.Format("060102") + "-" + random.Digits(4),
		":25:" + account,
		":28C:" + random.Digits(5) + "/001",
		":34F:" + currency + "0,00",
		":13D:" + now.Format("0601021504-0700"),
	}
	var debits, credits types.Money
	var nDebits, nCredits int
	debits.Currency, credits.Currency = currency, currency
	for _, m := range randomMovements(currency) {
		mark := "D"
		if m.credit {
			mark = "C"
			credits = credits.Add(m.amount)
			nCredits++
		} else {
			debits = debits.Add(m.amount)
			nDebits++
		}
		lines = append(lines,
			":61:"+now.Format("0601020102")+mark+m.amount.DecimalComma()+"NTRF"+m.vs+"//"+random.Digits(8),
			":86:"+m.name,
			" "+m.message,
		)
	}
	lines = append(lines,
		fmt.Sprintf(":90D:%d%s%s", nDebits, currency, debits.DecimalComma()),
		fmt.Sprintf(":90C:%d%s%s", nCredits, currency, credits.DecimalComma()),
		"-}",
	)
	return encodeWindows1250(strings.Join(lines, "\r\n"))
}

type finsta struct {
	XMLName xml.Name     `xml:"FINSTA"`
	Header  finstaHeader `xml:"FINSTA03"`
}

type finstaHeader struct {
	Account         string        `xml:"S25_CISLO_UCTU"`
	Currency        string        `xml:"S60_MENA"`
	StatementNumber string        `xml:"S28_CISLO_VYPISU"`
	From            string        `xml:"S60_DATUM"`
	To              string        `xml:"S62_DATUM"`
	Opening         string        `xml:"S60_CASTKA"`
	OpeningMark     string        `xml:"S60_CD_INDIK"`
	Closing         string        `xml:"S62_CASTKA"`
	ClosingMark     string        `xml:"S62_CD_INDIK"`
	Entries         []finstaEntry `xml:"FINSTA05"`
}

type finstaEntry struct {
	BookingDate    string `xml:"DPROCD"`
	ValueDate      string `xml:"S61_DATUM"`
	Mark           string `xml:"S61_CD_INDIK"`
	Amount         string `xml:"S61_CASTKA"`
	Account        string `xml:"PART_ACCNO"`
	Name           string `xml:"PART_ACC_ID"`
	VariableSymbol string `xml:"S86_VARSYMOUR"`
	Message        string `xml:"PART_MSG_1"`
}

// RandomReport returns xml account statement of the last day
func RandomReport(now time.Time) []byte {
	currency := random.Pick(currencies)
	opening := types.NewMoney(random.Minor(0, 10000000), currency)
	h := finstaHeader{
		Account:         random.Account(),
		Currency:        currency,
		StatementNumber: fmt.Sprint(now.YearDay()),
		From:            now.AddDate(0, 0, -1).Format(reportDateFormat),
		To:              now.Format(reportDateFormat),
		Opening:         opening.DecimalComma(),
		OpeningMark:     "C",
	}
	closing := opening
	for _, m := range randomMovements(currency) {
		e := finstaEntry{
			BookingDate:    now.Format(reportDateFormat),
			ValueDate:      now.Format(reportDateFormat),
			Mark:           "D",
			Amount:         m.amount.DecimalComma(),
			Account:        m.account,
			Name:           m.name,
			VariableSymbol: m.vs,
			Message:        m.message,
		}
		if m.credit {
			e.Mark = "C"
			closing = closing.Add(m.amount)
		} else {
			closing.Minor -= m.amount.Minor
		}
		h.Entries = append(h.Entries, e)
	}
	h.ClosingMark = "C"
	if closing.Minor < 0 {
		h.ClosingMark = "D"
		closing.Minor = -closing.Minor
	}
	h.Closing = closing.DecimalComma()

	data, err := xml.MarshalIndent(finsta{Header: h}, "", "  ")
	if err != nil {
		panic(err)
	}
	return encodeWindows1250(`<?xml version="1.0" encoding="windows-1250"?>` + "\n" + string(data))
}

func encodeWindows1250(s string) []byte {
	data, err := charmap.Windows1250.NewEncoder().String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(data)
}

// Seed publishes n random advices and reports
func (b *Bank) Seed(n int) {
	for x := 0; x < n; x++ {
		now := b.opts.Clock()
		if random.Credit() {
			b.AddInbound(fmt.Sprintf("ADV_%s_%s.STA", now.Format("20060102"), random.Digits(6)), vo.FormatMt942.String(), RandomAdvice(now))
			continue
		}
		b.AddInbound(fmt.Sprintf("VYPIS_%s_%s.xml", now.Format("20060102"), random.Digits(6)), vo.FormatXmlReport.String(), RandomReport(now))
	}
}
