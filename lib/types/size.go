package types

import (
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

type Size int64

func (s Size) String() string {
	return humanize.Bytes(uint64(s))
}

// UnmarshalYAML accepts both plain numbers and humanized values like 10MB
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	n, err := humanize.ParseBytes(str)
	if err != nil {
		return err
	}
	*s = Size(n)
	return nil
}
