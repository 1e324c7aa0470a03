package data

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexValue accepts json number or string
type flexValue string

func (v *flexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = flexValue(n.String())
	return nil
}

// Int returns leading integer of value or 0
func (v flexValue) Int() int {
	s := strings.TrimSpace(string(v))
	if i := strings.IndexAny(s, ".eE"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// envelope is upload reply.
// The json decoder matches keys case-insensitively.
type envelope struct {
	Status        flexValue  `json:"status"`
	StatusMessage *string    `json:"statusmessage"`
	NewFileID     *flexValue `json:"newfileid"`
	NewFileName   *flexValue `json:"newfilename"`
}

func (e *envelope) message() string {
	if e.StatusMessage == nil {
		return "Unknown error"
	}
	return *e.StatusMessage
}
