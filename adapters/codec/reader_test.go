package codec

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const testAdvice = "{1:F01CEKOCZPPAXXX2648380639}{2:O9421031240415OKHBHUHBAXXX19812655502404151031N}{4:\r\n" +
	":20:ADV-240415\r\n" +
	":25:CZ6508000000192000145399\r\n" +
	":28C:00042/001\r\n" +
	":34F:CZK0,00\r\n" +
	":13D:2404151031+0200\r\n" +
	":61:2404150415C1500,00NTRFNONREF//BANK123\r\n" +
	":86:Platba od zákazníka\r\n" +
	" faktura 42\r\n" +
	":61:240415RD250,5NMSCREF2\r\n" +
	":90D:1CZK250,50\r\n" +
	":90C:1CZK1500,00\r\n" +
	"-}"

func TestMt942(t *testing.T) {
	assert := require.New(t)
	data, err := charmap.Windows1250.NewEncoder().String(testAdvice)
	assert.NoError(err)

	doc, err := NewMt942Reader(slog.Default()).Read([]byte(data))
	assert.NoError(err)
	advice, ok := doc.(*models.Advice)
	assert.True(ok)

	assert.Equal("ADV-240415", advice.Reference)
	assert.Equal("CZ6508000000192000145399", advice.Account)
	assert.Equal("00042/001", advice.SequenceNumber)
	assert.Equal(types.NewMoney(0, "CZK"), advice.FloorLimit)
	assert.Equal(time.Date(2024, 4, 15, 8, 31, 0, 0, time.UTC), advice.CreatedAt.UTC())
	assert.Len(advice.Transactions, 2)

	tx := advice.Transactions[0]
	assert.True(tx.Credit)
	assert.False(tx.Reversal)
	assert.Equal("0415", tx.EntryDate)
	assert.Equal(types.NewMoney(150000, "CZK"), tx.Amount)
	assert.Equal("NTRF", tx.Type)
	assert.Equal("NONREF", tx.Reference)
	assert.Equal("BANK123", tx.BankRef)
	assert.Equal("Platba od zákazníka\n faktura 42", tx.Details)

	tx = advice.Transactions[1]
	assert.False(tx.Credit)
	assert.True(tx.Reversal)
	assert.Empty(tx.EntryDate)
	assert.Equal(int64(25050), tx.Amount.Minor)
	assert.Equal("REF2", tx.Reference)

	assert.Equal(models.Summary{Count: 1, Amount: types.NewMoney(25050, "CZK")}, advice.Debits)
	assert.Equal(models.Summary{Count: 1, Amount: types.NewMoney(150000, "CZK")}, advice.Credits)
}

func TestMt942MultipleMessages(t *testing.T) {
	assert := require.New(t)
	data := strings.Join([]string{
		"{1:F01CEKOCZPPAXXX0000000001}{2:O9421031240415CEKOCZPPAXXX00000000002404151031N}{4:",
		":20:REF1",
		":25:111/0300",
		":34F:CZK0,00",
		":61:240415C100,00NTRFNONREF",
		"-}",
		"{1:F01CEKOCZPPAXXX0000000002}{2:O9421031240415CEKOCZPPAXXX00000000002404151031N}{4:",
		":20:REF2",
		":25:222/0300",
		":34F:EUR0,00",
		":61:240415D5,00NMSCNONREF",
		"SUPPLEMENTARY",
		":86:Poplatek",
		"-}",
	}, "\r\n")

	doc, err := NewMt942Reader(slog.Default()).Read([]byte(data))
	assert.NoError(err)
	advices, ok := doc.(models.Advices)
	assert.True(ok)
	assert.Len(advices, 2)

	assert.Equal("REF1", advices[0].Reference)
	assert.Equal("111/0300", advices[0].Account)
	assert.Len(advices[0].Transactions, 1)
	assert.Equal(types.NewMoney(10000, "CZK"), advices[0].Transactions[0].Amount)

	assert.Equal("REF2", advices[1].Reference)
	assert.Equal("222/0300", advices[1].Account)
	assert.Len(advices[1].Transactions, 1)
	assert.Equal(types.NewMoney(500, "EUR"), advices[1].Transactions[0].Amount)
	assert.Equal("SUPPLEMENTARY\nPoplatek", advices[1].Transactions[0].Details)
}

func TestMt942Malformed(t *testing.T) {
	testCases := []struct {
		desc string
		data string
		line int
	}{
		{desc: "empty", data: ""},
		{desc: "no reference", data: ":25:123\r\n"},
		{desc: "text before tag", data: "garbage\r\n:20:X\r\n", line: 1},
		{desc: "bad statement line", data: ":20:X\r\n:25:Y\r\n:61:nonsense\r\n", line: 3},
		{desc: "orphan information", data: ":20:X\r\n:25:Y\r\n:86:text\r\n", line: 3},
		{desc: "second message without account", data: ":20:X\r\n:25:Y\r\n-}\r\n:20:Z\r\n-}\r\n"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert := require.New(t)
			_, err := NewMt942Reader(slog.Default()).Read([]byte(tC.data))
			assert.ErrorIs(err, errors.ErrParse)
			var perr *errors.ParseError
			assert.True(errors.As(err, &perr))
			assert.Equal(tC.line, perr.Line)
		})
	}
}

const testReport = `<?xml version="1.0" encoding="windows-1250"?>
<FINSTA>
  <FINSTA03>
    <S25_CISLO_UCTU>192000145399/0800</S25_CISLO_UCTU>
    <S60_MENA>CZK</S60_MENA>
    <S28_CISLO_VYPISU>42</S28_CISLO_VYPISU>
    <S60_DATUM>01.04.2024</S60_DATUM>
    <S62_DATUM>15.04.2024</S62_DATUM>
    <S60_CASTKA>1000,00</S60_CASTKA>
    <S60_CD_INDIK>C</S60_CD_INDIK>
    <S62_CASTKA>250,00</S62_CASTKA>
    <S62_CD_INDIK>D</S62_CD_INDIK>
    <FINSTA05>
      <DPROCD>15.04.2024</DPROCD>
      <S61_DATUM>15.04.2024</S61_DATUM>
      <S61_CD_INDIK>D</S61_CD_INDIK>
      <S61_CASTKA>1250,00</S61_CASTKA>
      <PART_ACCNO>2000145399</PART_ACCNO>
      <PART_BANK_ID>0800</PART_BANK_ID>
      <PART_ACC_ID>Dodavatel s.r.o.</PART_ACC_ID>
      <S86_VARSYMOUR>2024001</S86_VARSYMOUR>
      <S86_KONSTSYM>0308</S86_KONSTSYM>
      <PART_MSG_1>Úhrada faktury</PART_MSG_1>
    </FINSTA05>
    <FINSTA05>
      <S61_DATUM>2024-04-14</S61_DATUM>
      <S61_CD_INDIK>C</S61_CD_INDIK>
      <S61_CASTKA>10.5</S61_CASTKA>
      <S61_MENA>EUR</S61_MENA>
    </FINSTA05>
  </FINSTA03>
</FINSTA>
`

func TestReport(t *testing.T) {
	assert := require.New(t)
	data, err := charmap.Windows1250.NewEncoder().String(testReport)
	assert.NoError(err)

	doc, err := NewReportReader(slog.Default()).Read([]byte(data))
	assert.NoError(err)
	report := doc.(*models.Report)

	assert.Equal("192000145399/0800", report.Account)
	assert.Equal("CZK", report.Currency)
	assert.Equal("42", report.StatementNumber)
	assert.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), report.From)
	assert.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), report.To)
	assert.Equal(types.NewMoney(100000, "CZK"), report.OpeningBalance)
	assert.Equal(types.NewMoney(-25000, "CZK"), report.ClosingBalance)
	assert.Len(report.Entries, 2)

	e := report.Entries[0]
	assert.False(e.Credit)
	assert.Equal(types.NewMoney(125000, "CZK"), e.Amount)
	assert.Equal("Dodavatel s.r.o.", e.CounterpartyName)
	assert.Equal("2024001", e.VariableSymbol)
	assert.Equal("0308", e.ConstantSymbol)
	assert.Equal("Úhrada faktury", e.Message)

	e = report.Entries[1]
	assert.True(e.Credit)
	assert.Equal(types.NewMoney(1050, "EUR"), e.Amount)
	assert.True(e.BookingDate.IsZero())
	assert.Equal(14, e.ValueDate.Day())
}

func TestReportMalformed(t *testing.T) {
	testCases := []struct {
		desc string
		data string
	}{
		{desc: "not xml", data: "statement"},
		{desc: "other root", data: "<Other/>"},
		{desc: "no account", data: "<FINSTA><FINSTA03/></FINSTA>"},
		{desc: "bad date", data: "<FINSTA><FINSTA03><S25_CISLO_UCTU>1</S25_CISLO_UCTU><S60_DATUM>yesterday</S60_DATUM></FINSTA03></FINSTA>"},
		{desc: "bad amount", data: "<FINSTA><FINSTA03><S25_CISLO_UCTU>1</S25_CISLO_UCTU><FINSTA05><S61_CASTKA>x</S61_CASTKA></FINSTA05></FINSTA03></FINSTA>"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := NewReportReader(slog.Default()).Read([]byte(tC.data))
			require.ErrorIs(t, err, errors.ErrParse)
		})
	}
}

func TestImportProtocolFromFinishReply(t *testing.T) {
	assert := require.New(t)
	envelope := `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <FinishUploadFileList_v2Response xmlns="http://ceb-bc.csob.cz/CEBBCWS">
      <TicketId>T-77</TicketId>
      <FileList>
        <FileDetail><Filename>a.txt</Filename><Hash>h1</Hash><NewFileId>1</NewFileId><Status>OK</Status></FileDetail>
        <FileDetail><Filename>b.txt</Filename><Hash>h2</Hash><NewFileId>2</NewFileId><Status>OK</Status></FileDetail>
        <FileDetail><Filename>c.txt</Filename><Hash>h3</Hash><NewFileId>3</NewFileId><Status>ERROR</Status><StatusMessage>bad</StatusMessage></FileDetail>
      </FileList>
    </FinishUploadFileList_v2Response>
  </soap:Body>
</soap:Envelope>`

	doc, err := NewImportProtocolReader(slog.Default()).Read([]byte(envelope))
	assert.NoError(err)
	protocol := doc.(*models.ImportProtocol)
	assert.Equal("T-77", protocol.TicketID)
	assert.Len(protocol.Files, strings.Count(envelope, "<FileDetail>"))
	assert.Equal(models.ImportedFile{FileName: "c.txt", Hash: "h3", FileID: "3", Status: "ERROR", StatusMessage: "bad"}, protocol.Files[2])
}

func TestImportProtocol(t *testing.T) {
	assert := require.New(t)
	data := `<ImportProtocol>
  <FileDetail>
    <Filename>batch.txt</Filename>
    <FileId>99</FileId>
    <Status>PARTIAL</Status>
    <RecordsTotal>3</RecordsTotal>
    <RecordsAccepted>2</RecordsAccepted>
    <RecordsRejected>1</RecordsRejected>
    <Errors><Error><Record>2</Record><Code>E12</Code><Message>invalid account</Message></Error></Errors>
  </FileDetail>
</ImportProtocol>`

	doc, err := NewImportProtocolReader(slog.Default()).Read([]byte(data))
	assert.NoError(err)
	f := doc.(*models.ImportProtocol).Files[0]
	assert.Equal("99", f.FileID)
	assert.Equal(3, f.RecordsTotal)
	assert.Equal(1, f.RecordsRejected)
	assert.Equal([]models.ImportError{{Record: 2, Code: "E12", Message: "invalid account"}}, f.Errors)

	for _, bad := range []string{"", "<a><b></a>", "<Other><Thing/></Other>"} {
		_, err := NewImportProtocolReader(slog.Default()).Read([]byte(bad))
		assert.ErrorIs(err, errors.ErrParse, bad)
	}
}
