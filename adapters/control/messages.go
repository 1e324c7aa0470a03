package control

import "encoding/xml"

// DefaultNamespace is the target namespace of the bank web service
const DefaultNamespace = "http://ceb-bc.csob.cz/CEBBCWS"

// DateFormat is W3C date-time used by the filter bounds
const DateFormat = "2006-01-02T15:04:05-07:00"

const (
	OpGetDownloadFileList  = "GetDownloadFileList_v2"
	OpStartUploadFileList  = "StartUploadFileList_v3"
	OpFinishUploadFileList = "FinishUploadFileList_v2"
)

type GetDownloadFileListRequest struct {
	XMLName            xml.Name       `xml:"GetDownloadFileList_v2"`
	Xmlns              string         `xml:"xmlns,attr,omitempty"`
	ContractNumber     string         `xml:"ContractNumber"`
	PrevQueryTimestamp string         `xml:"PrevQueryTimestamp,omitempty"`
	Filter             DownloadFilter `xml:"Filter"`
}

type DownloadFilter struct {
	ClientAppGuid string   `xml:"ClientAppGuid"`
	FileTypes     []string `xml:"FileTypes>FileType,omitempty"`
	FileName      string   `xml:"FileName,omitempty"`
	CreatedBefore string   `xml:"CreatedBefore,omitempty"`
	CreatedAfter  string   `xml:"CreatedAfter,omitempty"`
}

type GetDownloadFileListResponse struct {
	XMLName        xml.Name     `xml:"GetDownloadFileList_v2Response"`
	QueryTimestamp *string      `xml:"QueryTimestamp"`
	TicketId       *string      `xml:"TicketId"`
	Files          []FileDetail `xml:"FileList>FileDetail"`
}

type FileDetail struct {
	Filename         string `xml:"Filename"`
	UploadFileHash   string `xml:"UploadFileHash"`
	Size             int64  `xml:"Size"`
	CreationDateTime string `xml:"CreationDateTime"`
	Type             string `xml:"Type"`
	Status           string `xml:"Status"`
	Url              string `xml:"Url"`
}

type StartUploadFileListRequest struct {
	XMLName        xml.Name           `xml:"StartUploadFileList_v3"`
	Xmlns          string             `xml:"xmlns,attr,omitempty"`
	ContractNumber string             `xml:"ContractNumber"`
	ClientAppGuid  string             `xml:"ClientAppGuid"`
	Files          []ImportFileDetail `xml:"FileList>ImportFileDetail"`
}

type ImportFileDetail struct {
	Filename            string `xml:"Filename"`
	Hash                string `xml:"Hash"`
	Size                int64  `xml:"Size"`
	Format              string `xml:"Format"`
	Mode                string `xml:"Mode"`
	SkipCheckDuplicates bool   `xml:"SkipCheckDuplicates"`
	Separator           string `xml:"Separator,omitempty"`
}

type StartUploadFileListResponse struct {
	XMLName xml.Name           `xml:"StartUploadFileList_v3Response"`
	Files   []FileUploadDetail `xml:"FileList>FileUploadDetail"`
}

type FileUploadDetail struct {
	Filename      string `xml:"Filename"`
	Hash          string `xml:"Hash"`
	Status        string `xml:"Status"`
	Url           string `xml:"Url"`
	StatusMessage string `xml:"StatusMessage,omitempty"`
}

type FinishUploadFileListRequest struct {
	XMLName        xml.Name `xml:"FinishUploadFileList_v2"`
	Xmlns          string   `xml:"xmlns,attr,omitempty"`
	ContractNumber string   `xml:"ContractNumber"`
	ClientAppGuid  string   `xml:"ClientAppGuid"`
	Files          []FileID `xml:"FileList>FileId"`
}

type FileID struct {
	Filename  string `xml:"Filename"`
	Hash      string `xml:"Hash"`
	NewFileId string `xml:"NewFileId"`
}

type FinishUploadFileListResponse struct {
	XMLName  xml.Name             `xml:"FinishUploadFileList_v2Response"`
	TicketId string               `xml:"TicketId,omitempty"`
	Files    []FinishedFileDetail `xml:"FileList>FileDetail"`
}

type FinishedFileDetail struct {
	Filename      string `xml:"Filename"`
	Hash          string `xml:"Hash"`
	NewFileId     string `xml:"NewFileId"`
	Status        string `xml:"Status"`
	StatusMessage string `xml:"StatusMessage,omitempty"`
}
