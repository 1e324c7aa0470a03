package codec

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/ports"
)

const TpsSeparator = "\r\n"

var TpsHeader = Template{
	Name: "header",
	Fields: []Field{
		{Name: "type", Position: 0, Length: 2, Type: "text"},
		{Name: "created", Position: 2, Length: 8, Type: "date"},
		{Name: "batch", Position: 10, Length: 20, Type: "text"},
		{Name: "account", Position: 30, Length: 17, Type: "text", Strict: true},
		{Name: "currency", Position: 47, Length: 3, Type: "text", Strict: true},
	},
}

var TpsDetail = Template{
	Name: "detail",
	Fields: []Field{
		{Name: "type", Position: 0, Length: 2, Type: "text"},
		{Name: "seq", Position: 2, Length: 6, Type: "numeric", Padding: "0", Align: "right"},
		{Name: "originator", Position: 8, Length: 17, Type: "text", Strict: true},
		{Name: "account", Position: 25, Length: 17, Type: "text", Strict: true},
		{Name: "bank", Position: 42, Length: 4, Type: "numeric", Padding: "0", Align: "right"},
		{Name: "amount", Position: 46, Length: 15, Type: "amount", Align: "right", Strict: true},
		{Name: "currency", Position: 61, Length: 3, Type: "text", Strict: true},
		{Name: "vs", Position: 64, Length: 10, Type: "numeric", Padding: "0", Align: "right"},
		{Name: "ks", Position: 74, Length: 4, Type: "numeric", Padding: "0", Align: "right"},
		{Name: "ss", Position: 78, Length: 10, Type: "numeric", Padding: "0", Align: "right"},
		{Name: "due", Position: 88, Length: 8, Type: "date"},
		{Name: "name", Position: 96, Length: 35, Type: "text"},
		{Name: "purpose", Position: 131, Length: 140, Type: "text"},
	},
}

var TpsTrailer = Template{
	Name: "trailer",
	Fields: []Field{
		{Name: "type", Position: 0, Length: 2, Type: "text"},
		{Name: "count", Position: 2, Length: 6, Type: "numeric", Padding: "0", Align: "right"},
		{Name: "sum", Position: 8, Length: 18, Type: "amount", Align: "right", Strict: true},
	},
}

// TpsGenerator writes inland payments as fixed-width text records
// with header and trailer in Windows-1250
type TpsGenerator struct {
	log    ports.Logger
	writer *artifactWriter
}

func NewTpsGenerator(log ports.Logger, fs ports.FS, tmpDir string, clock ports.Clock) *TpsGenerator {
	log = log.With(slog.String("entity", "TpsGenerator"))
	return &TpsGenerator{
		log:    log,
		writer: &artifactWriter{fs: fs, tmpDir: tmpDir, clock: clock},
	}
}

func (g *TpsGenerator) Generate(payments models.Payments, name string, rail vo.Rail) (*models.File, error) {
	if err := checkSingleCurrency(vo.FormatTxtTps, payments, rail, vo.RailInland); err != nil {
		return nil, err
	}
	now := g.writer.clock()
	batch := name
	if batch == "" {
		batch = DefaultArtifactName
	}

	records := make([]Record, 0, len(payments)+2)
	records = append(records, Record{
		"type":     "HD",
		"created":  now.Format("20060102"),
		"batch":    batch,
		"account":  payments[0].OriginatorAccount,
		"currency": strings.ToUpper(payments[0].Amount.Currency),
	})
	for i, p := range payments {
		if err := checkInlandAccount(fmt.Sprintf("payments[%d].originatorAccount", i), p.OriginatorAccount); err != nil {
			return nil, err
		}
		if err := checkInlandAccount(fmt.Sprintf("payments[%d].counterparty.account", i), p.Counterparty.Account); err != nil {
			return nil, err
		}
		due := p.Domestic.DueDate
		if due.IsZero() {
			due = now
		}
		records = append(records, Record{
			"type":       "PL",
			"seq":        strconv.Itoa(i + 1),
			"originator": p.OriginatorAccount,
			"account":    p.Counterparty.Account,
			"bank":       p.Counterparty.BankCode,
			"amount":     p.Amount.DecimalComma(),
			"currency":   strings.ToUpper(p.Amount.Currency),
			"vs":         p.Domestic.VariableSymbol,
			"ks":         p.Domestic.ConstantSymbol,
			"ss":         p.Domestic.SpecificSymbol,
			"due":        due.Format("20060102"),
			"name":       p.Counterparty.Name,
			"purpose":    p.Purpose,
		})
	}
	records = append(records, Record{
		"type":  "TR",
		"count": strconv.Itoa(len(payments)),
		"sum":   payments.Total().DecimalComma(),
	})

	lines := make([]string, 0, len(records))
	for i, r := range records {
		t := TpsDetail
		switch i {
		case 0:
			t = TpsHeader
		case len(records) - 1:
			t = TpsTrailer
		}
		if err := t.Check(r); err != nil {
			return nil, err
		}
		lines = append(lines, t.Format(r))
	}

	content, err := encodeWindows1250(vo.FormatTxtTps, strings.Join(lines, TpsSeparator)+TpsSeparator)
	if err != nil {
		return nil, err
	}
	f, err := g.writer.write(vo.FormatTxtTps, name, ".txt", TpsSeparator, content)
	if err != nil {
		g.log.Error("unable to write artifact", slog.Any("err", err))
		return nil, err
	}
	g.log.Info("generated", slog.String("file", f.Name()), slog.Int("payments", len(payments)), slog.String("total", payments.Total().String()))
	return f, nil
}

// inlandAccount is [prefix-]number of domestic account
var inlandAccount = regexp.MustCompile(`^([0-9]{1,6}-)?[0-9]{2,10}$`)

func checkInlandAccount(field, account string) error {
	if !inlandAccount.MatchString(account) {
		return &errors.ValidationError{Field: field, Value: account, Msg: "not an inland account number"}
	}
	return nil
}

// TpsSummary is header and trailer of parsed flat file
type TpsSummary struct {
	Batch string
	Count int
	Sum   string
	Lines []Record
}

// ParseTps reads back generated flat file.
// Used to verify artifacts before upload.
func ParseTps(data []byte) (*TpsSummary, error) {
	text, err := decodeWindows1250(data)
	if err != nil {
		return nil, &errors.ParseError{Format: vo.FormatTxtTps, Msg: "invalid encoding", Err: err}
	}
	s := &TpsSummary{}
	for i, line := range strings.Split(strings.TrimRight(text, TpsSeparator), TpsSeparator) {
		switch {
		case strings.HasPrefix(line, "HD"):
			s.Batch = TpsHeader.Parse(line)["batch"]
		case strings.HasPrefix(line, "PL"):
			s.Lines = append(s.Lines, TpsDetail.Parse(line))
		case strings.HasPrefix(line, "TR"):
			r := TpsTrailer.Parse(line)
			s.Count, _ = strconv.Atoi(r["count"])
			s.Sum = r["sum"]
		default:
			return nil, &errors.ParseError{Format: vo.FormatTxtTps, Line: i + 1, Msg: fmt.Sprintf("unknown record type %q", line[:min(2, len(line))])}
		}
	}
	if s.Count != len(s.Lines) {
		return nil, &errors.ParseError{Format: vo.FormatTxtTps, Msg: fmt.Sprintf("trailer count %d does not match %d records", s.Count, len(s.Lines))}
	}
	return s, nil
}
