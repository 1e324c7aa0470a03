package vo

// FileFormat identifies a codec in the registry
// and is sent to the bank as the format of an uploaded file.
type FileFormat string

const (
	// outbound
	FormatTxtTps  FileFormat = "TXT_TPS"
	FormatMt101   FileFormat = "MT101"
	FormatSepaXml FileFormat = "SEPA_XML"

	// inbound
	FormatMt942          FileFormat = "MT942"
	FormatXmlReport      FileFormat = "XML_CSOB"
	FormatImportProtocol FileFormat = "IMPROT"
)

func (f FileFormat) String() string {
	return string(f)
}

// UploadMode is the bank policy for batches with invalid records
type UploadMode string

const (
	UploadOnlyCorrect UploadMode = "ONLY_CORRECT"
	UploadAllOrNone   UploadMode = "ALL_OR_NONE"
)

// Rail is payment network of a payment order
type Rail string

const (
	RailInland  Rail = "inland"
	RailForeign Rail = "foreign"
	RailSepa    Rail = "sepa"
)

func (r Rail) IsValid() bool {
	return r == RailInland || r == RailForeign || r == RailSepa
}
