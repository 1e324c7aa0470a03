package control

import (
	"context"
	"encoding/xml"
	"log/slog"
	"testing"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra/soap"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	calls    []string
	requests []interface{}
	reply    string
	err      error
}

func (t *fakeTransport) Call(ctx context.Context, action string, req interface{}, resp interface{}) error {
	t.calls = append(t.calls, action)
	t.requests = append(t.requests, req)
	if t.err != nil {
		return t.err
	}
	return xml.Unmarshal([]byte(t.reply), resp)
}

func (t *fakeTransport) LastRequest() string  { return "<request/>" }
func (t *fakeTransport) LastResponse() string { return "<response/>" }

var testNow = time.Date(2024, 4, 15, 10, 31, 0, 0, time.UTC)

func newTestClient(tr *fakeTransport) *Client {
	return NewClient(slog.Default(), tr, Options{
		ContractNumber: "1234",
		ClientAppGuid:  "guid-1",
		Clock:          func() time.Time { return testNow },
	})
}

func TestGetFiles(t *testing.T) {
	assert := require.New(t)
	tr := &fakeTransport{reply: `
<GetDownloadFileList_v2Response xmlns="urn:x">
  <QueryTimestamp>2019-05-20T10:00:00.123+02:00</QueryTimestamp>
  <TicketId>T-1</TicketId>
  <FileList>
    <FileDetail>
      <Filename>a.xml</Filename>
      <UploadFileHash>aa</UploadFileHash>
      <Size>10</Size>
      <CreationDateTime>2019-05-20T09:00:00+02:00</CreationDateTime>
      <Type>VYPIS</Type>
      <Status>D</Status>
      <Url>https://bank.test/a.xml</Url>
    </FileDetail>
    <FileDetail>
      <Filename>b.xml</Filename>
      <UploadFileHash>bb</UploadFileHash>
    </FileDetail>
  </FileList>
</GetDownloadFileList_v2Response>`}
	c := newTestClient(tr)

	after := time.Date(2019, 5, 1, 0, 0, 0, 0, time.FixedZone("", 2*3600))
	res, err := c.GetFiles(context.Background(), "prev", &models.Filter{
		FileTypes:     []string{"VYPIS", "IMPROT"},
		CreatedAfter:  &after,
		ClientAppGuid: "override",
	})
	assert.NoError(err)
	assert.Equal("2019-05-20T10:00:00.123+02:00", res.QueryTimestamp)
	assert.Equal("T-1", res.TicketID)
	assert.Len(res.Files, 2)
	assert.Equal("a.xml", res.Files[0].Name())
	assert.Equal("aa", res.Files[0].Hash())
	assert.EqualValues(10, res.Files[0].Size)
	assert.Equal("VYPIS", res.Files[0].Type)
	assert.Equal("https://bank.test/a.xml", res.Files[0].DownloadURL)
	assert.Equal(2019, res.Files[0].Created.Year())
	// no creation time in reply
	assert.Equal(testNow, res.Files[1].Created)

	assert.Len(tr.calls, 1)
	assert.Equal(DefaultNamespace+"/"+OpGetDownloadFileList, tr.calls[0])
	req := tr.requests[0].(*GetDownloadFileListRequest)
	assert.Equal("1234", req.ContractNumber)
	assert.Equal("prev", req.PrevQueryTimestamp)
	assert.Equal("override", req.Filter.ClientAppGuid)
	assert.Equal([]string{"VYPIS", "IMPROT"}, req.Filter.FileTypes)
	assert.Equal("2019-05-01T00:00:00+02:00", req.Filter.CreatedAfter)
	assert.Empty(req.Filter.CreatedBefore)
}

func TestGetFilesMissingFields(t *testing.T) {
	testCases := []struct {
		desc  string
		reply string
		msg   string
	}{
		{
			desc:  "no timestamp",
			reply: `<GetDownloadFileList_v2Response><TicketId>T</TicketId></GetDownloadFileList_v2Response>`,
			msg:   "QueryTimestamp",
		},
		{
			desc:  "no ticket",
			reply: `<GetDownloadFileList_v2Response><QueryTimestamp>1</QueryTimestamp></GetDownloadFileList_v2Response>`,
			msg:   "TicketId",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert := require.New(t)
			c := newTestClient(&fakeTransport{reply: tC.reply})
			_, err := c.GetFiles(context.Background(), "", nil)
			assert.ErrorIs(err, errors.ErrResponse)
			assert.Contains(err.Error(), tC.msg)
		})
	}
}

func TestStartUpload(t *testing.T) {
	assert := require.New(t)
	tr := &fakeTransport{reply: `
<StartUploadFileList_v3Response>
  <FileList>
    <FileUploadDetail><Filename>a.txt</Filename><Hash>h1</Hash><Status>UPLOAD_AVAILABLE</Status><Url>https://bank.test/up/1</Url></FileUploadDetail>
    <FileUploadDetail><Filename>b.txt</Filename><Hash>h2</Hash><Status>REFUSED</Status><StatusMessage>duplicate</StatusMessage></FileUploadDetail>
  </FileList>
</StartUploadFileList_v3Response>`}
	c := newTestClient(tr)

	a := models.NewFile("a.txt", "h1")
	a.Format = vo.FormatTxtTps
	a.Separator = "\r\n"
	b := models.NewFile("b.txt", "h2")
	d := models.NewFile("d.txt", "h3")

	res, err := c.StartUpload(context.Background(), []*models.File{a, b, d})
	assert.NoError(err)
	assert.Equal([]*models.File{a}, res.Registered)
	assert.Equal([]*models.File{b}, res.Rejected)
	assert.Equal([]*models.File{d}, res.Unanswered)

	assert.True(a.Status().IsUploadAvailable())
	assert.Equal("https://bank.test/up/1", a.UploadURL())
	assert.True(b.Status().IsFailed())
	assert.Equal("duplicate", b.Reason())
	assert.True(d.Status().IsNew())

	assert.Len(tr.calls, 1)
	req := tr.requests[0].(*StartUploadFileListRequest)
	assert.Len(req.Files, 3)
	assert.True(req.Files[0].SkipCheckDuplicates)
	assert.Equal("TXT_TPS", req.Files[0].Format)
	assert.Equal("ONLY_CORRECT", req.Files[0].Mode)
	assert.Equal("\r\n", req.Files[0].Separator)
}

func TestStartUploadInvalidURL(t *testing.T) {
	testCases := []struct {
		desc string
		url  string
	}{
		{desc: "empty", url: ""},
		{desc: "relative", url: "/upload/relative"},
		{desc: "no scheme", url: "bank.test/up/1"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert := require.New(t)
			c := newTestClient(&fakeTransport{reply: `
<StartUploadFileList_v3Response>
  <FileList>
    <FileUploadDetail><Filename>a.txt</Filename><Hash>h1</Hash><Status>UPLOAD_AVAILABLE</Status><Url>https://bank.test/up/1</Url></FileUploadDetail>
    <FileUploadDetail><Filename>b.txt</Filename><Hash>h2</Hash><Status>UPLOAD_AVAILABLE</Status><Url>` + tC.url + `</Url></FileUploadDetail>
  </FileList>
</StartUploadFileList_v3Response>`})

			a := models.NewFile("a.txt", "h1")
			b := models.NewFile("b.txt", "h2")
			res, err := c.StartUpload(context.Background(), []*models.File{a, b})
			assert.NoError(err)
			assert.Equal([]*models.File{a}, res.Registered)
			assert.Equal([]*models.File{b}, res.Rejected)
			assert.True(b.Status().IsFailed())
			assert.Contains(b.Reason(), "invalid upload url")
			assert.Empty(b.UploadURL())
		})
	}
}

func TestStartUploadPreconditions(t *testing.T) {
	assert := require.New(t)
	tr := &fakeTransport{}
	c := newTestClient(tr)

	_, err := c.StartUpload(context.Background(), nil)
	assert.ErrorIs(err, errors.ErrValidation)
	assert.ErrorIs(err, errors.ErrNoFiles)

	f := models.NewFile("a.txt", "h1")
	assert.NoError(f.Failed("x"))
	_, err = c.StartUpload(context.Background(), []*models.File{f})
	assert.ErrorIs(err, errors.ErrState)
	assert.Empty(tr.calls)
}

func TestFinishUpload(t *testing.T) {
	assert := require.New(t)
	tr := &fakeTransport{reply: `
<FinishUploadFileList_v2Response>
  <TicketId>T-9</TicketId>
  <FileList>
    <FileDetail><Filename>a.txt</Filename><Hash>h1</Hash><NewFileId>77</NewFileId><Status>OK</Status></FileDetail>
  </FileList>
</FinishUploadFileList_v2Response>`}
	c := newTestClient(tr)

	f := models.NewFile("a.txt", "h1")
	assert.NoError(f.Registered("https://bank.test/up/1"))
	assert.NoError(f.Transferred(models.Upload{FileID: "77", FileName: "bank-a.txt"}))

	conf, err := c.FinishUpload(context.Background(), []*models.File{f})
	assert.NoError(err)
	assert.Equal("T-9", conf.TicketID)
	assert.Equal([]models.ConfirmedFile{{FileName: "a.txt", Hash: "h1", FileID: "77", Status: "OK"}}, conf.Files)

	req := tr.requests[0].(*FinishUploadFileListRequest)
	assert.Equal([]FileID{{Filename: "a.txt", Hash: "h1", NewFileId: "77"}}, req.Files)
}

func TestFinishUploadWithoutUpload(t *testing.T) {
	assert := require.New(t)
	tr := &fakeTransport{}
	c := newTestClient(tr)

	ok := models.NewFile("a.txt", "h1")
	assert.NoError(ok.Registered("https://bank.test/up/1"))
	assert.NoError(ok.Transferred(models.Upload{FileID: "1", FileName: "a"}))
	missing := models.NewFile("b.txt", "h2")

	_, err := c.FinishUpload(context.Background(), []*models.File{ok, missing})
	assert.ErrorIs(err, errors.ErrState)
	assert.Contains(err.Error(), "b.txt")
	assert.Empty(tr.calls)

	_, err = c.FinishUpload(context.Background(), nil)
	assert.ErrorIs(err, errors.ErrNothingToConfirm)
	assert.Empty(tr.calls)
}

func TestCallFault(t *testing.T) {
	assert := require.New(t)
	tr := &fakeTransport{err: &soap.Fault{Code: "soap:Server", String: "contract unknown"}}
	c := newTestClient(tr)

	_, err := c.GetFiles(context.Background(), "", nil)
	assert.ErrorIs(err, errors.ErrRequest)
	var reqErr *errors.RequestError
	assert.True(errors.As(err, &reqErr))
	assert.Equal(errors.ControlChannel, reqErr.Channel)
	assert.Equal("SOAP Fault contract unknown. Request: <response/>", reqErr.Msg)
	assert.Equal("<request/>", reqErr.LastRequest)
	assert.Equal("<response/>", reqErr.LastResponse)
}
