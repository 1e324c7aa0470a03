package vo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStatusTransitions(t *testing.T) {
	testCases := []struct {
		desc string
		from FileStatus
		to   FileStatus
		ok   bool
	}{
		{desc: "register", from: FileIsNew, to: FileIsUploadAvailable, ok: true},
		{desc: "zero value is new", from: "", to: FileIsUploadAvailable, ok: true},
		{desc: "transfer", from: FileIsUploadAvailable, to: FileIsTransferred, ok: true},
		{desc: "confirm", from: FileIsTransferred, to: FileIsConfirmed, ok: true},
		{desc: "fail new", from: FileIsNew, to: FileIsFailed, ok: true},
		{desc: "fail transferred", from: FileIsTransferred, to: FileIsFailed, ok: true},
		{desc: "skip registration", from: FileIsNew, to: FileIsTransferred},
		{desc: "skip transfer", from: FileIsUploadAvailable, to: FileIsConfirmed},
		{desc: "backwards", from: FileIsTransferred, to: FileIsUploadAvailable},
		{desc: "failed is absorbing", from: FileIsFailed, to: FileIsNew},
		{desc: "confirmed is terminal", from: FileIsConfirmed, to: FileIsFailed},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			require.Equal(t, tC.ok, tC.from.CanTransitionTo(tC.to))
		})
	}
}
