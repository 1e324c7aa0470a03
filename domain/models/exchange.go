package models

import "time"

// Filter narrows the list of downloadable files.
// Zero fields are not sent.
type Filter struct {
	FileTypes     []string
	FileName      string
	CreatedBefore *time.Time
	CreatedAfter  *time.Time
	ClientAppGuid string // overrides configured identity
}

// ListResult is the reply of the list operation.
// QueryTimestamp is opaque and passed back as since on the next query.
type ListResult struct {
	QueryTimestamp string
	TicketID       string
	Files          []*File
}

// RegisterResult splits registered files by the bank decision
type RegisterResult struct {
	Registered []*File
	Rejected   []*File
	Unanswered []*File
}

// Confirmation is the reply of the finish upload operation
type Confirmation struct {
	TicketID string
	Files    []ConfirmedFile
}

type ConfirmedFile struct {
	FileName      string
	Hash          string
	FileID        string
	Status        string
	StatusMessage string
}
