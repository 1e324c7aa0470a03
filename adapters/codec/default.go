package codec

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/ports"
)

type Options struct {
	TmpDir      string
	Clock       ports.Clock
	SenderBIC   string
	ReceiverBIC string
	Originator  Originator
}

// NewDefaultRegistry returns registry with all supported formats
func NewDefaultRegistry(log ports.Logger, fs ports.FS, opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	r := NewRegistry()
	r.AddGenerator(vo.FormatTxtTps, NewTpsGenerator(log, fs, opts.TmpDir, opts.Clock))
	r.AddGenerator(vo.FormatMt101, NewMt101Generator(log, fs, opts.TmpDir, opts.Clock, Mt101Options{
		SenderBIC:   opts.SenderBIC,
		ReceiverBIC: opts.ReceiverBIC,
		Originator:  opts.Originator,
	}))
	r.AddGenerator(vo.FormatSepaXml, NewSepaGenerator(log, fs, opts.TmpDir, opts.Clock, opts.Originator, opts.SenderBIC))

	r.AddReader(vo.FormatMt942, NewMt942Reader(log))
	r.AddReader(vo.FormatXmlReport, NewReportReader(log))
	r.AddReader(vo.FormatImportProtocol, NewImportProtocolReader(log))

	r.AddPattern(10, "*improt*.xml", vo.FormatImportProtocol)
	r.AddPattern(20, "*.sta", vo.FormatMt942)
	r.AddPattern(30, "*mt942*", vo.FormatMt942)
	r.AddPattern(40, "*.xml", vo.FormatXmlReport)
	return r
}

// Separator returns record separator of outbound format
func Separator(format vo.FileFormat) string {
	switch format {
	case vo.FormatTxtTps:
		return TpsSeparator
	case vo.FormatMt101:
		return Mt101Separator
	}
	return ""
}

// OutboundPattern maps file name glob to outbound format
type OutboundPattern struct {
	Pattern string        `yaml:"pattern" validate:"required"`
	Format  vo.FileFormat `yaml:"format" validate:"required,oneof=TXT_TPS MT101 SEPA_XML"`
}

var DefaultOutboundPatterns = []OutboundPattern{
	{Pattern: "*.xml", Format: vo.FormatSepaXml},
	{Pattern: "*.txt", Format: vo.FormatTxtTps},
	{Pattern: "*.tps", Format: vo.FormatTxtTps},
	{Pattern: "*.mt101", Format: vo.FormatMt101},
	{Pattern: "*.101", Format: vo.FormatMt101},
}

// OutboundFormat returns format of the first pattern matching base name of path.
// Matching is case insensitive.
func OutboundFormat(patterns []OutboundPattern, path string) (vo.FileFormat, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p.Pattern), name); ok {
			return p.Format, true
		}
	}
	return "", false
}
