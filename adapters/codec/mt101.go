package codec

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
)

const (
	Mt101Separator  = "\r\n"
	mt101LineLength = 35
	mt101NarrLines  = 4
)

// Originator is ordering customer printed in :50H: of MT messages
type Originator struct {
	Name    string `yaml:"name"`
	Street  string `yaml:"street"`
	City    string `yaml:"city"`
	Country string `yaml:"country"`
}

type Mt101Options struct {
	SenderBIC   string
	ReceiverBIC string
	Originator  Originator
}

// Mt101Generator writes foreign payments as SWIFT MT101 messages in Windows-1250
type Mt101Generator struct {
	log    ports.Logger
	writer *artifactWriter
	opts   Mt101Options
}

func NewMt101Generator(log ports.Logger, fs ports.FS, tmpDir string, clock ports.Clock, opts Mt101Options) *Mt101Generator {
	log = log.With(slog.String("entity", "Mt101Generator"))
	return &Mt101Generator{
		log:    log,
		writer: &artifactWriter{fs: fs, tmpDir: tmpDir, clock: clock},
		opts:   opts,
	}
}

func (g *Mt101Generator) Generate(payments models.Payments, name string, rail vo.Rail) (*models.File, error) {
	if err := checkRail(vo.FormatMt101, payments, rail, vo.RailForeign, vo.RailInland); err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(payments))
	for i, p := range payments {
		messages = append(messages, g.message(i+1, p))
	}
	content, err := encodeWindows1250(vo.FormatMt101, strings.Join(messages, Mt101Separator))
	if err != nil {
		return nil, err
	}
	f, err := g.writer.write(vo.FormatMt101, name, "", Mt101Separator, content)
	if err != nil {
		g.log.Error("unable to write artifact", slog.Any("err", err))
		return nil, err
	}
	g.log.Info("generated", slog.String("file", f.Name()), slog.Int("payments", len(payments)))
	return f, nil
}

func (g *Mt101Generator) message(seq int, p *models.PaymentOrder) string {
	now := g.writer.clock()
	execution := now
	charges := models.DefaultForeignPaymentCharge
	if p.Foreign != nil {
		if !p.Foreign.ExecutionDate.IsZero() {
			execution = p.Foreign.ExecutionDate
		}
		charges = p.Foreign.Charges
	}
	sum := md5.Sum([]byte(p.OriginatorAccount + p.Counterparty.Account))

	lines := []string{
		fmt.Sprintf("{1:F01%sXXXX0000000000}{2:I101%sXXXXN}{4:", bic8(g.opts.SenderBIC), bic8(g.opts.ReceiverBIC)),
		fmt.Sprintf(":20:%s%08d", now.Format("20060102"), seq),
		":28D:1/1",
		":50H:/" + p.OriginatorAccount,
	}
	lines = appendLines(lines, g.opts.Originator.Name, g.opts.Originator.Street, g.opts.Originator.City, strings.ToUpper(g.opts.Originator.Country))
	lines = append(lines,
		":52A:"+strings.ToUpper(g.opts.SenderBIC),
		":30:"+execution.Format("20060102"),
		":21:"+hex.EncodeToString(sum[:])[:16],
		":32B:"+strings.ToUpper(p.Amount.Currency)+p.Amount.DecimalComma(),
		":57A:"+strings.ToUpper(p.Counterparty.BIC),
		":59:/"+p.Counterparty.Account,
	)
	address := strings.TrimSpace(strings.Join([]string{p.Counterparty.Street, p.Counterparty.City}, " "))
	lines = appendLines(lines, p.Counterparty.Name, address, strings.ToUpper(p.Counterparty.Country))

	narrative := lib.Chunks(p.Purpose, mt101LineLength)
	if len(narrative) > mt101NarrLines {
		narrative = narrative[:mt101NarrLines]
	}
	for i, n := range narrative {
		if i == 0 {
			n = ":70:" + n
		}
		lines = append(lines, n)
	}
	lines = append(lines, ":71A:"+charges, "-}")
	return strings.Join(lines, Mt101Separator)
}

// appendLines appends non empty values capped to MT line length
func appendLines(lines []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		lines = append(lines, lib.Truncate(v, mt101LineLength))
	}
	return lines
}

func bic8(bic string) string {
	bic = strings.ToUpper(strings.TrimSpace(bic))
	if len(bic) > 8 {
		return bic[:8]
	}
	return bic + strings.Repeat("X", 8-len(bic))
}
