package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudcopper/bcx/domain/errors"
)

// Template is a fixed-width record layout
type Template struct {
	Name   string
	Fields []Field
}

// Field is a single column of fixed-width record.
// Position is 0-based rune offset in the record.
type Field struct {
	Name     string
	Position int
	Length   int
	Type     string // "text", "numeric", "amount" or "date"
	Padding  string
	Align    string // "left" or "right"
	// Strict fields are rejected instead of truncated
	Strict   bool
}

// Record holds field values by field name
type Record map[string]string

// Width returns record length
func (t Template) Width() int {
	width := 0
	for _, f := range t.Fields {
		if end := f.Position + f.Length; end > width {
			width = end
		}
	}
	return width
}

// Format places record values to their positions
func (t Template) Format(record Record) string {
	line := []rune(strings.Repeat(" ", t.Width()))
	for _, f := range t.Fields {
		value := []rune(formatValue(record[f.Name], f))
		copy(line[f.Position:f.Position+f.Length], value)
	}
	return string(line)
}

// Check reports the first strict field whose value does not fit
func (t Template) Check(record Record) error {
	for _, f := range t.Fields {
		if !f.Strict {
			continue
		}
		value := record[f.Name]
		if n := utf8.RuneCountInString(value); n > f.Length {
			return &errors.ValidationError{Field: t.Name + "." + f.Name, Value: value, Msg: fmt.Sprintf("longer than %d characters", f.Length)}
		}
	}
	return nil
}

// Parse cuts fixed-width line into record
func (t Template) Parse(line string) Record {
	runes := []rune(line)
	record := Record{}
	for _, f := range t.Fields {
		if f.Position >= len(runes) {
			record[f.Name] = ""
			continue
		}
		end := min(f.Position+f.Length, len(runes))
		value := string(runes[f.Position:end])
		if f.Align == "right" {
			value = strings.TrimLeft(value, f.pad())
		}
		record[f.Name] = strings.TrimSpace(value)
	}
	return record
}

func (f Field) pad() string {
	if f.Padding == "" {
		return " "
	}
	return f.Padding
}

func formatValue(value string, f Field) string {
	switch f.Type {
	case "numeric":
		value = strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, value)
	case "date":
		value = strings.NewReplacer("-", "", "/", "", ".", "").Replace(value)
	}

	if utf8.RuneCountInString(value) > f.Length {
		value = string([]rune(value)[:f.Length])
	}
	padding := strings.Repeat(f.pad(), f.Length-utf8.RuneCountInString(value))
	if f.Align == "right" {
		return padding + value
	}
	return value + padding
}
