package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib/types"
)

// File is a batch file exchanged with the bank.
// It is identified by name and content hash, both immutable.
// Status, upload url and Upload change only through the transition methods.
// A File must be owned by one in-flight upload at a time.
type File struct {
	name string
	hash string

	Size        types.Size
	Format      vo.FileFormat
	Type        string // inbound file type as reported by bank
	Separator   string // record separator, empty if none
	Mode        vo.UploadMode
	Created     time.Time
	DownloadURL string
	Path        string // local artifact, if any
	Content     []byte

	status    vo.FileStatus
	uploadURL string
	upload    *Upload
	reason    string
}

// FileKey is the identity used to correlate a file across protocol phases
type FileKey struct {
	Name string
	Hash string
}

// NewFile creates file with given identity in NEW state
func NewFile(name, hash string) *File {
	return &File{
		name:   name,
		hash:   hash,
		Mode:   vo.UploadOnlyCorrect,
		status: vo.FileIsNew,
	}
}

// NewFileFromContent creates NEW file with sha256 hash and size of content
func NewFileFromContent(name string, format vo.FileFormat, content []byte) *File {
	f := NewFile(name, ContentHash(content))
	f.Format = format
	f.Size = types.Size(len(content))
	f.Content = content
	return f
}

// NewInboundFile creates file listed by bank with the status bank reported
func NewInboundFile(name, hash string, status vo.FileStatus) *File {
	f := NewFile(name, hash)
	f.status = status
	return f
}

// ContentHash returns lower case hex sha256 of content
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (f *File) Name() string { return f.name }

func (f *File) Hash() string { return f.hash }

func (f *File) Key() FileKey { return FileKey{Name: f.name, Hash: f.hash} }

func (f *File) Status() vo.FileStatus {
	if f.status == "" {
		return vo.FileIsNew
	}
	return f.status
}

func (f *File) UploadURL() string { return f.uploadURL }

// Upload returns bank assignment or nil before transfer
func (f *File) Upload() *Upload {
	if f.upload == nil {
		return nil
	}
	u := *f.upload
	return &u
}

// Reason returns why the file FAILED
func (f *File) Reason() string { return f.reason }

// Registered moves NEW file to UPLOAD_AVAILABLE with the bank assigned upload url
func (f *File) Registered(uploadURL string) error {
	if err := f.transition(vo.FileIsUploadAvailable); err != nil {
		return err
	}
	f.uploadURL = uploadURL
	return nil
}

// Transferred moves UPLOAD_AVAILABLE file to TRANSFERRED with bank assignment
func (f *File) Transferred(upload Upload) error {
	if upload.FileID == "" || upload.FileName == "" {
		return &errors.StateError{FileName: f.name, Status: f.Status(), Msg: "empty upload assignment"}
	}
	if err := f.transition(vo.FileIsTransferred); err != nil {
		return err
	}
	f.upload = &upload
	return nil
}

// Confirmed moves TRANSFERRED file to CONFIRMED
func (f *File) Confirmed() error {
	return f.transition(vo.FileIsConfirmed)
}

// Failed moves not yet terminal file to FAILED
func (f *File) Failed(reason string) error {
	if err := f.transition(vo.FileIsFailed); err != nil {
		return err
	}
	f.reason = reason
	return nil
}

func (f *File) transition(to vo.FileStatus) error {
	from := f.Status()
	if !from.CanTransitionTo(to) {
		return &errors.StateError{FileName: f.name, Status: from, Msg: "can not move to " + to.String()}
	}
	f.status = to
	return nil
}

// Upload is bank assigned identity of transferred file
type Upload struct {
	FileID   string
	FileName string
}
