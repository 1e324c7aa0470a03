package models

import (
	"time"

	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/types"
)

// Document is a structured inbound bank file
type Document interface {
	DocumentFormat() vo.FileFormat
}

// Advice is an intraday account movement advice (MT942)
type Advice struct {
	Reference      string
	Account        string
	SequenceNumber string
	FloorLimit     types.Money
	CreatedAt      time.Time
	Transactions   []AdviceTransaction
	Debits         Summary
	Credits        Summary
}

type AdviceTransaction struct {
	ValueDate time.Time
	EntryDate string // MMDD as sent, may be empty
	Credit    bool
	Reversal  bool
	Amount    types.Money
	Type      string // 4 character transaction type identification
	Reference string
	BankRef   string
	Details   string
}

type Summary struct {
	Count  int
	Amount types.Money
}

func (*Advice) DocumentFormat() vo.FileFormat { return vo.FormatMt942 }

// Advices holds every message of a multi-message MT942 file, in file order
type Advices []*Advice

func (Advices) DocumentFormat() vo.FileFormat { return vo.FormatMt942 }

// Report is an account statement report
type Report struct {
	Account         string
	Currency        string
	StatementNumber string
	From            time.Time
	To              time.Time
	OpeningBalance  types.Money
	ClosingBalance  types.Money
	Entries         []ReportEntry
}

type ReportEntry struct {
	BookingDate         time.Time
	ValueDate           time.Time
	Credit              bool
	Amount              types.Money
	CounterpartyAccount string
	CounterpartyBank    string
	CounterpartyName    string
	VariableSymbol      string
	ConstantSymbol      string
	SpecificSymbol      string
	Reference           string
	Message             string
}

func (*Report) DocumentFormat() vo.FileFormat { return vo.FormatXmlReport }

// ImportProtocol is bank acknowledgement of imported files
type ImportProtocol struct {
	TicketID string
	Files    []ImportedFile
}

type ImportedFile struct {
	FileName        string
	Hash            string
	FileID          string
	Status          string
	StatusMessage   string
	RecordsTotal    int
	RecordsAccepted int
	RecordsRejected int
	Errors          []ImportError
}

type ImportError struct {
	Record  int
	Code    string
	Message string
}

func (*ImportProtocol) DocumentFormat() vo.FileFormat { return vo.FormatImportProtocol }
