package codec

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/cloudcopper/bcx/ports"
)

var (
	mtTagRe     = regexp.MustCompile(`^:([0-9]{2}[A-Z]?):(.*)$`)
	mt61Re      = regexp.MustCompile(`^([0-9]{6})([0-9]{4})?(RC|RD|C|D)([A-Z])?([0-9]+,[0-9]{0,2})([A-Z][A-Z0-9]{3})([^/]*)(?://(.*))?$`)
	mtAmountRe  = regexp.MustCompile(`^([A-Z]{3})([DC])?([0-9]+,[0-9]{0,2})$`)
	mtSummaryRe = regexp.MustCompile(`^([0-9]+)([A-Z]{3})([0-9]+,[0-9]{0,2})$`)
)

// Mt942Reader parses intraday advice
type Mt942Reader struct {
	log ports.Logger
}

func NewMt942Reader(log ports.Logger) *Mt942Reader {
	log = log.With(slog.String("entity", "Mt942Reader"))
	return &Mt942Reader{log: log}
}

type mtField struct {
	line  int
	tag   string
	value string
}

// Read returns *models.Advice for single message file and
// models.Advices when file carries more messages
func (r *Mt942Reader) Read(data []byte) (models.Document, error) {
	text, err := decodeWindows1250(data)
	if err != nil {
		return nil, &errors.ParseError{Format: vo.FormatMt942, Msg: "invalid encoding", Err: err}
	}
	messages, err := splitMtMessages(text)
	if err != nil {
		return nil, err
	}

	advices := make(models.Advices, 0, len(messages))
	for _, fields := range messages {
		advice, err := r.readAdvice(fields)
		if err != nil {
			return nil, err
		}
		advices = append(advices, advice)
	}
	if len(advices) == 1 {
		return advices[0], nil
	}
	r.log.Debug("multi-message advice", slog.Int("messages", len(advices)))
	return advices, nil
}

func (r *Mt942Reader) readAdvice(fields []mtField) (*models.Advice, error) {
	var err error
	advice := &models.Advice{}
	var currency string
	for _, f := range fields {
		switch f.tag {
		case "20":
			advice.Reference = f.value
		case "25":
			advice.Account = f.value
		case "28C":
			advice.SequenceNumber = f.value
		case "34F":
			m := mtAmountRe.FindStringSubmatch(f.value)
			if m == nil {
				return nil, mtError(f, "invalid floor limit")
			}
			currency = m[1]
			if advice.FloorLimit, err = types.ParseMoney(m[3], m[1]); err != nil {
				return nil, mtError(f, err.Error())
			}
		case "13D":
			if advice.CreatedAt, err = parseMtDateTime(f.value); err != nil {
				return nil, mtError(f, "invalid date time indication")
			}
		case "61":
			tx, err := parseMt61(f.value, currency)
			if err != nil {
				return nil, mtError(f, err.Error())
			}
			advice.Transactions = append(advice.Transactions, tx)
		case "86":
			if len(advice.Transactions) == 0 {
				return nil, mtError(f, "information without statement line")
			}
			tx := &advice.Transactions[len(advice.Transactions)-1]
			if tx.Details != "" {
				tx.Details += "\n"
			}
			tx.Details += f.value
		case "90D", "90C":
			m := mtSummaryRe.FindStringSubmatch(f.value)
			if m == nil {
				return nil, mtError(f, "invalid summary")
			}
			count, _ := strconv.Atoi(m[1])
			amount, err := types.ParseMoney(m[3], m[2])
			if err != nil {
				return nil, mtError(f, err.Error())
			}
			if f.tag == "90D" {
				advice.Debits = models.Summary{Count: count, Amount: amount}
			} else {
				advice.Credits = models.Summary{Count: count, Amount: amount}
			}
		default:
			r.log.Debug("tag ignored", slog.String("tag", f.tag), slog.Int("line", f.line))
		}
	}

	if advice.Reference == "" {
		return nil, &errors.ParseError{Format: vo.FormatMt942, Msg: "missing :20: transaction reference"}
	}
	if advice.Account == "" {
		return nil, &errors.ParseError{Format: vo.FormatMt942, Msg: "missing :25: account identification"}
	}
	return advice, nil
}

// splitMtMessages returns tagged fields of every message of text.
// Message ends with "-}" or when next one starts with block 1 header.
// Lines without tag continue the previous field.
func splitMtMessages(text string) ([][]mtField, error) {
	var messages [][]mtField
	var fields []mtField
	flush := func() {
		if len(fields) > 0 {
			messages = append(messages, fields)
		}
		fields = nil
	}
	for i, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimRight(line, " \r")
		if strings.HasPrefix(line, "{1:") {
			flush()
		}
		if j := strings.Index(line, "{4:"); j >= 0 {
			line = line[j+3:]
		}
		if strings.HasPrefix(line, "-}") {
			flush()
			continue
		}
		if line == "" || line == "-" {
			continue
		}
		if m := mtTagRe.FindStringSubmatch(line); m != nil {
			fields = append(fields, mtField{line: i + 1, tag: m[1], value: m[2]})
			continue
		}
		if len(fields) == 0 {
			return nil, &errors.ParseError{Format: vo.FormatMt942, Line: i + 1, Msg: "text before first tag"}
		}
		fields[len(fields)-1].value += "\n" + line
	}
	flush()
	if len(messages) == 0 {
		return nil, &errors.ParseError{Format: vo.FormatMt942, Msg: "no tags found"}
	}
	return messages, nil
}

func parseMt61(value, currency string) (models.AdviceTransaction, error) {
	first, supplementary, _ := strings.Cut(value, "\n")
	m := mt61Re.FindStringSubmatch(first)
	if m == nil {
		return models.AdviceTransaction{}, fmt.Errorf("invalid statement line %q", first)
	}
	valueDate, err := time.Parse("060102", m[1])
	if err != nil {
		return models.AdviceTransaction{}, fmt.Errorf("invalid value date %q", m[1])
	}
	amount, err := types.ParseMoney(m[5], currency)
	if err != nil {
		return models.AdviceTransaction{}, err
	}
	tx := models.AdviceTransaction{
		ValueDate: valueDate,
		EntryDate: m[2],
		Credit:    strings.HasSuffix(m[3], "C"),
		Reversal:  strings.HasPrefix(m[3], "R"),
		Amount:    amount,
		Type:      m[6],
		Reference: m[7],
		BankRef:   m[8],
	}
	if supplementary != "" {
		tx.Details = strings.TrimSpace(supplementary)
	}
	return tx, nil
}

// parseMtDateTime parses YYMMDDHHMM followed by +HHMM or -HHMM offset
func parseMtDateTime(s string) (time.Time, error) {
	if len(s) == 10 {
		return time.Parse("0601021504", s)
	}
	return time.Parse("0601021504-0700", s)
}

func mtError(f mtField, msg string) error {
	return &errors.ParseError{Format: vo.FormatMt942, Line: f.line, Msg: fmt.Sprintf(":%v: %v", f.tag, msg)}
}
