package errors

// The Application return code errors
const (
	RetArgumentsError            = 8
	RetLoadConfigError           = 10
	RetCreateDatabaseError       = 11
	RetMigrateDatabaseError      = 12
	RetCreateFileRepositoryError = 13
	RetCreateTLSConfigError      = 14
	RetCreateArchiveError        = 15
	RetCreateRegistryError       = 16
	RetCreateOutboxWatcherError  = 17
	RetCreateOutboxServiceError  = 18
	RetListFilesError            = 20
	RetDownloadError             = 21
	RetUploadError               = 22
	RetGenerateError             = 23
	RetReadError                 = 24
	RetJournalError              = 25
	RetCreateWebServerError      = 40
)
