package vo

// FileStatus is the lifecycle state of an outbound file.
// Inbound files carry whatever status the bank reported.
type FileStatus string

const (
	FileIsNew             FileStatus = "NEW"
	FileIsUploadAvailable FileStatus = "UPLOAD_AVAILABLE"
	FileIsTransferred     FileStatus = "TRANSFERRED"
	FileIsConfirmed       FileStatus = "CONFIRMED"
	FileIsFailed          FileStatus = "FAILED"
)

// validTransitions lists forward transitions only.
// FAILED is reachable from every non terminal state and is absorbing.
var validTransitions = map[FileStatus]map[FileStatus]bool{
	FileIsNew:             {FileIsUploadAvailable: true, FileIsFailed: true},
	FileIsUploadAvailable: {FileIsTransferred: true, FileIsFailed: true},
	FileIsTransferred:     {FileIsConfirmed: true, FileIsFailed: true},
	FileIsConfirmed:       {},
	FileIsFailed:          {},
}

func (s FileStatus) String() string {
	return string(s)
}

func (s FileStatus) IsNew() bool {
	return s == FileIsNew || s == ""
}

func (s FileStatus) IsUploadAvailable() bool {
	return s == FileIsUploadAvailable
}

func (s FileStatus) IsTransferred() bool {
	return s == FileIsTransferred
}

func (s FileStatus) IsConfirmed() bool {
	return s == FileIsConfirmed
}

func (s FileStatus) IsFailed() bool {
	return s == FileIsFailed
}

// IsTerminal returns true for states without outgoing transitions
func (s FileStatus) IsTerminal() bool {
	return s.IsConfirmed() || s.IsFailed()
}

// CanTransitionTo reports whether s -> to is a valid forward transition
func (s FileStatus) CanTransitionTo(to FileStatus) bool {
	if s == "" {
		s = FileIsNew
	}
	return validTransitions[s][to]
}
