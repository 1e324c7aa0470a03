// Package codec turns payment orders to bank files and bank files to documents
package codec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/ports"
)

// Registry maps file formats to generators and readers.
// It also detects inbound format by file name patterns.
type Registry struct {
	mu         sync.RWMutex
	generators map[vo.FileFormat]ports.Generator
	readers    map[vo.FileFormat]ports.Reader
	patterns   []patternInfo
}

type patternInfo struct {
	prio    int
	pattern string
	format  vo.FileFormat
}

func NewRegistry() *Registry {
	return &Registry{
		generators: map[vo.FileFormat]ports.Generator{},
		readers:    map[vo.FileFormat]ports.Reader{},
	}
}

func (r *Registry) AddGenerator(format vo.FileFormat, g ports.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[format] = g
}

func (r *Registry) AddReader(format vo.FileFormat, rd ports.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[format] = rd
}

// AddPattern registers case insensitive file name glob of format.
// Patterns with lower prio are tried first.
func (r *Registry) AddPattern(prio int, pattern string, format vo.FileFormat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, patternInfo{prio, strings.ToLower(pattern), format})
	sort.SliceStable(r.patterns, func(i, j int) bool {
		return r.patterns[i].prio < r.patterns[j].prio
	})
}

// Generator returns generator of format or *errors.ConfigError
func (r *Registry) Generator(format vo.FileFormat) (ports.Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[format]
	if !ok {
		return nil, unknownFormat("generator", format)
	}
	return g, nil
}

// Reader returns reader of format or *errors.ConfigError
func (r *Registry) Reader(format vo.FileFormat) (ports.Reader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.readers[format]
	if !ok {
		return nil, unknownFormat("reader", format)
	}
	return rd, nil
}

// Detect returns format of the first pattern matching base name of path
func (r *Registry) Detect(path string) (vo.FileFormat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name := strings.ToLower(filepath.Base(path))
	for _, it := range r.patterns {
		if ok, err := filepath.Match(it.pattern, name); ok && err == nil {
			return it.format, true
		}
	}
	return "", false
}

// Formats returns sorted formats having generator (outbound) and reader (inbound)
func (r *Registry) Formats() (outbound []vo.FileFormat, inbound []vo.FileFormat) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for f := range r.generators {
		outbound = append(outbound, f)
	}
	for f := range r.readers {
		inbound = append(inbound, f)
	}
	sort.Slice(outbound, func(i, j int) bool { return outbound[i] < outbound[j] })
	sort.Slice(inbound, func(i, j int) bool { return inbound[i] < inbound[j] })
	return outbound, inbound
}

func unknownFormat(kind string, format vo.FileFormat) error {
	return &errors.ConfigError{
		Key: "format",
		Msg: fmt.Sprintf("no %v for %q", kind, format),
		Err: errors.ErrUnknownFormat,
	}
}
