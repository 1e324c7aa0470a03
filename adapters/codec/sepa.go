package codec

import (
	"bytes"
	"encoding/xml"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
)

const SepaNamespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"

type sepaDocument struct {
	XMLName xml.Name     `xml:"Document"`
	Xmlns   string       `xml:"xmlns,attr"`
	Root    sepaTransfer `xml:"CstmrCdtTrfInitn"`
}

type sepaTransfer struct {
	GrpHdr  sepaGroupHeader `xml:"GrpHdr"`
	PmtInfs []sepaPmtInf    `xml:"PmtInf"`
}

type sepaGroupHeader struct {
	MsgId    string    `xml:"MsgId"`
	CreDtTm  string    `xml:"CreDtTm"`
	NbOfTxs  int       `xml:"NbOfTxs"`
	CtrlSum  string    `xml:"CtrlSum"`
	InitgPty sepaParty `xml:"InitgPty"`
}

type sepaParty struct {
	Nm string `xml:"Nm"`
}

type sepaPmtInf struct {
	PmtInfId    string       `xml:"PmtInfId"`
	PmtMtd      string       `xml:"PmtMtd"`
	NbOfTxs     int          `xml:"NbOfTxs"`
	CtrlSum     string       `xml:"CtrlSum"`
	SvcLvl      string       `xml:"PmtTpInf>SvcLvl>Cd"`
	ReqdExctnDt string       `xml:"ReqdExctnDt"`
	Dbtr        sepaParty    `xml:"Dbtr"`
	DbtrAcct    sepaAccount  `xml:"DbtrAcct"`
	DbtrAgtBIC  string       `xml:"DbtrAgt>FinInstnId>BIC,omitempty"`
	ChrgBr      string       `xml:"ChrgBr"`
	Txs         []sepaTxInfo `xml:"CdtTrfTxInf"`
}

type sepaAccount struct {
	IBAN  string `xml:"Id>IBAN,omitempty"`
	Other string `xml:"Id>Othr>Id,omitempty"`
}

type sepaTxInfo struct {
	EndToEndId string      `xml:"PmtId>EndToEndId"`
	Amount     sepaAmount  `xml:"Amt>InstdAmt"`
	CdtrAgtBIC string      `xml:"CdtrAgt>FinInstnId>BIC,omitempty"`
	Cdtr       sepaParty   `xml:"Cdtr"`
	CdtrAcct   sepaAccount `xml:"CdtrAcct"`
	Ustrd      string      `xml:"RmtInf>Ustrd"`
}

type sepaAmount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

// SepaGenerator writes sepa payments as ISO 20022 pain.001.001.03
type SepaGenerator struct {
	log        ports.Logger
	writer     *artifactWriter
	originator Originator
	bic        string
}

func NewSepaGenerator(log ports.Logger, fs ports.FS, tmpDir string, clock ports.Clock, originator Originator, bic string) *SepaGenerator {
	log = log.With(slog.String("entity", "SepaGenerator"))
	return &SepaGenerator{
		log:        log,
		writer:     &artifactWriter{fs: fs, tmpDir: tmpDir, clock: clock},
		originator: originator,
		bic:        strings.ToUpper(bic),
	}
}

func (g *SepaGenerator) Generate(payments models.Payments, name string, rail vo.Rail) (*models.File, error) {
	if err := checkSingleCurrency(vo.FormatSepaXml, payments, rail, vo.RailSepa); err != nil {
		return nil, err
	}
	now := g.writer.clock()
	batch := name
	if batch == "" {
		batch = DefaultArtifactName
	}

	doc := sepaDocument{Xmlns: SepaNamespace}
	doc.Root.GrpHdr = sepaGroupHeader{
		MsgId:    lib.Truncate(batch+"-"+now.Format(artifactTimeFormat), 35),
		CreDtTm:  now.Format("2006-01-02T15:04:05"),
		NbOfTxs:  len(payments),
		CtrlSum:  payments.Total().Decimal(),
		InitgPty: sepaParty{Nm: lib.Truncate(g.originator.Name, 70)},
	}

	// one PmtInf per originator account in order of appearance
	index := map[string]int{}
	groups := []models.Payments{}
	for _, p := range payments {
		i, ok := index[p.OriginatorAccount]
		if !ok {
			i = len(groups)
			index[p.OriginatorAccount] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	for i, group := range groups {
		doc.Root.PmtInfs = append(doc.Root.PmtInfs, g.paymentInfo(i+1, batch, group))
	}

	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, &errors.GenerationError{Format: vo.FormatSepaXml, Err: err}
	}
	buf.WriteString("\n")

	f, err := g.writer.write(vo.FormatSepaXml, name, ".xml", "", buf.Bytes())
	if err != nil {
		g.log.Error("unable to write artifact", slog.Any("err", err))
		return nil, err
	}
	g.log.Info("generated", slog.String("file", f.Name()), slog.Int("payments", len(payments)), slog.Int("groups", len(groups)))
	return f, nil
}

func (g *SepaGenerator) paymentInfo(seq int, batch string, group models.Payments) sepaPmtInf {
	pi := sepaPmtInf{
		PmtInfId:    lib.Truncate(batch+"-"+strconv.Itoa(seq), 35),
		PmtMtd:      "TRF",
		NbOfTxs:     len(group),
		CtrlSum:     group.Total().Decimal(),
		SvcLvl:      "SEPA",
		ReqdExctnDt: executionDate(g.writer.clock(), group[0].Sepa.PaymentDay),
		Dbtr:        sepaParty{Nm: lib.Truncate(g.originator.Name, 70)},
		DbtrAcct:    account(group[0].OriginatorAccount),
		DbtrAgtBIC:  g.bic,
		ChrgBr:      "SLEV",
	}
	for _, p := range group {
		e2e := p.Sepa.OriginatorReference
		if e2e == "" {
			e2e = "NOTPROVIDED"
		}
		pi.Txs = append(pi.Txs, sepaTxInfo{
			EndToEndId: e2e,
			Amount:     sepaAmount{Ccy: strings.ToUpper(p.Amount.Currency), Value: p.Amount.Decimal()},
			CdtrAgtBIC: p.Counterparty.BIC,
			Cdtr:       sepaParty{Nm: lib.Truncate(p.Counterparty.Name, 70)},
			CdtrAcct:   account(p.Counterparty.Account),
			Ustrd:      lib.Truncate(p.Purpose, models.MaxPurposeLength),
		})
	}
	return pi
}

func account(s string) sepaAccount {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if lib.IsIBAN(s) {
		return sepaAccount{IBAN: strings.ToUpper(s)}
	}
	return sepaAccount{Other: s}
}

// executionDate returns requested execution date.
// Payment day 99 means as soon as possible,
// day 1-31 is the nearest such day of current or next month.
func executionDate(now time.Time, paymentDay string) string {
	day, err := strconv.Atoi(paymentDay)
	if err != nil || day < 1 || day > 31 {
		return now.Format("2006-01-02")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := dayOfMonth(today.Year(), today.Month(), day, now.Location())
	if d.Before(today) {
		next := today.AddDate(0, 0, -today.Day()+1).AddDate(0, 1, 0)
		d = dayOfMonth(next.Year(), next.Month(), day, now.Location())
	}
	return d.Format("2006-01-02")
}

// dayOfMonth clamps day to the last day of month
func dayOfMonth(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	return time.Date(year, month, min(day, last), 0, 0, 0, 0, loc)
}
