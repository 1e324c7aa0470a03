package fakebank

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudcopper/bcx/adapters/codec"
	"github.com/cloudcopper/bcx/adapters/control"
	"github.com/cloudcopper/bcx/adapters/data"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra/soap"
	"github.com/stretchr/testify/require"
)

type testBank struct {
	bank    *Bank
	control *control.Client
	data    *data.Client
}

func newTestBank(t *testing.T, opts Options) *testBank {
	log := slog.Default()
	bank := NewBank(log, opts)
	srv := httptest.NewServer(NewRouter(log, bank))
	t.Cleanup(srv.Close)
	bank.SetBaseURL(srv.URL)

	transport := soap.NewClient(log, srv.Client(), srv.URL+ApiPath)
	return &testBank{
		bank:    bank,
		control: control.NewClient(log, transport, control.Options{ContractNumber: opts.ContractNumber, ClientAppGuid: "guid-1"}),
		data:    data.NewClient(log, srv.Client(), data.Options{}),
	}
}

func TestBankDownload(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	tb := newTestBank(t, Options{ContractNumber: "1234"})
	advice := RandomAdvice(time.Now())
	tb.bank.AddInbound("ADV_1.STA", vo.FormatMt942.String(), advice)
	tb.bank.AddInbound("VYPIS_1.xml", vo.FormatXmlReport.String(), RandomReport(time.Now()))

	list, err := tb.control.GetFiles(ctx, "", nil)
	assert.NoError(err)
	assert.NotEmpty(list.QueryTimestamp)
	assert.NotEmpty(list.TicketID)
	assert.Len(list.Files, 2)
	f := list.Files[0]
	assert.Equal("ADV_1.STA", f.Name())
	assert.Equal(models.ContentHash(advice), f.Hash())
	assert.Equal(vo.FormatMt942, f.Format)

	content, err := tb.data.Download(ctx, f.DownloadURL)
	assert.NoError(err)
	assert.Equal(advice, content)

	list, err = tb.control.GetFiles(ctx, "", &models.Filter{FileTypes: []string{vo.FormatXmlReport.String()}})
	assert.NoError(err)
	assert.Len(list.Files, 1)
	assert.Equal("VYPIS_1.xml", list.Files[0].Name())

	list, err = tb.control.GetFiles(ctx, list.QueryTimestamp, nil)
	assert.NoError(err)
	assert.Empty(list.Files)

	_, err = tb.data.Download(ctx, f.DownloadURL+"x")
	assert.ErrorIs(err, errors.ErrRequest)
}

func TestBankUpload(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	tb := newTestBank(t, Options{Formats: []vo.FileFormat{vo.FormatSepaXml}})

	list, err := tb.control.GetFiles(ctx, "", nil)
	assert.NoError(err)

	good := models.NewFileFromContent("pay.xml", vo.FormatSepaXml, []byte("<Document/>"))
	tampered := models.NewFileFromContent("tampered.xml", vo.FormatSepaXml, []byte("<Document>1</Document>"))
	foreign := models.NewFileFromContent("pay.101", vo.FormatMt101, []byte(":20:X"))

	reg, err := tb.control.StartUpload(ctx, []*models.File{good, tampered, foreign})
	assert.NoError(err)
	assert.Len(reg.Registered, 2)
	assert.Len(reg.Rejected, 1)
	assert.True(foreign.Status().IsFailed())
	assert.Contains(foreign.Reason(), "Unsupported format")

	assert.NoError(tb.data.Upload(ctx, good))
	assert.True(good.Status().IsTransferred())
	assert.Contains(good.Upload().FileName, "pay.xml")

	tampered.Content = []byte("<Document>2</Document>")
	err = tb.data.Upload(ctx, tampered)
	assert.ErrorIs(err, errors.ErrResponse)
	assert.True(tampered.Status().IsUploadAvailable())

	confirmation, err := tb.control.FinishUpload(ctx, []*models.File{good})
	assert.NoError(err)
	assert.Len(confirmation.Files, 1)
	assert.Equal(StatusConfirmed, confirmation.Files[0].Status)
	assert.Equal([]string{"pay.xml"}, tb.bank.Confirmed())

	// import protocol of the batch appears for download
	list, err = tb.control.GetFiles(ctx, list.QueryTimestamp, &models.Filter{FileTypes: []string{vo.FormatImportProtocol.String()}})
	assert.NoError(err)
	assert.Len(list.Files, 1)
	content, err := tb.data.Download(ctx, list.Files[0].DownloadURL)
	assert.NoError(err)
	doc, err := codec.NewImportProtocolReader(slog.Default()).Read(content)
	assert.NoError(err)
	protocol := doc.(*models.ImportProtocol)
	assert.Equal(confirmation.TicketID, protocol.TicketID)
	assert.Len(protocol.Files, 1)
	assert.Equal("pay.xml", protocol.Files[0].FileName)
}

func TestBankUnknownContract(t *testing.T) {
	assert := require.New(t)
	tb := newTestBank(t, Options{ContractNumber: "1234"})
	tb.control = control.NewClient(slog.Default(), soap.NewClient(slog.Default(), http.DefaultClient, tb.bank.opts.BaseURL+ApiPath), control.Options{ContractNumber: "9999"})

	_, err := tb.control.GetFiles(context.Background(), "", nil)
	assert.ErrorIs(err, errors.ErrRequest)
	var re *errors.RequestError
	assert.ErrorAs(err, &re)
	assert.Contains(re.Msg, "unknown contract")
}

func TestRandomContentIsReadable(t *testing.T) {
	assert := require.New(t)
	now := time.Date(2024, 4, 15, 10, 31, 0, 0, time.UTC)

	doc, err := codec.NewMt942Reader(slog.Default()).Read(RandomAdvice(now))
	assert.NoError(err)
	advice := doc.(*models.Advice)
	assert.NotEmpty(advice.Transactions)
	assert.Equal(len(advice.Transactions), advice.Debits.Count+advice.Credits.Count)

	doc, err = codec.NewReportReader(slog.Default()).Read(RandomReport(now))
	assert.NoError(err)
	report := doc.(*models.Report)
	assert.NotEmpty(report.Entries)
	assert.Equal(now.Day(), report.To.Day())
}

func TestSeed(t *testing.T) {
	assert := require.New(t)
	tb := newTestBank(t, Options{})
	tb.bank.Seed(5)

	list, err := tb.control.GetFiles(context.Background(), "", nil)
	assert.NoError(err)
	assert.Len(list.Files, 5)
}
