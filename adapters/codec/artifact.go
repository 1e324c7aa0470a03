package codec

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"golang.org/x/text/encoding/charmap"
)

const DefaultArtifactName = "payments-batch"

const artifactTimeFormat = "20060102150405"

// artifactWriter stores generated content to temporary directory
type artifactWriter struct {
	fs     ports.FS
	tmpDir string
	clock  ports.Clock
}

// artifactName returns <dir>/<name>-<YmdHis>-<md5[:6]><ext>
func (w *artifactWriter) artifactName(name, ext string, content []byte) string {
	if name == "" {
		name = DefaultArtifactName
	}
	sum := md5.Sum(content)
	base := fmt.Sprintf("%s-%s-%s%s", name, w.clock().Format(artifactTimeFormat), hex.EncodeToString(sum[:])[:6], ext)
	return filepath.Join(w.tmpDir, base)
}

// write stores content and returns NEW file of it
func (w *artifactWriter) write(format vo.FileFormat, name, ext, separator string, content []byte) (*models.File, error) {
	if name != "" && !lib.IsSecureFileName(name) {
		return nil, &errors.ValidationError{Field: "name", Value: name, Err: errors.ErrUnsecureFileName, Msg: "unsecure file name"}
	}
	path := w.artifactName(name, ext, content)
	if err := lib.WriteFileAtomic(w.fs, path, content); err != nil {
		return nil, &errors.GenerationError{Format: format, Path: path, Err: err}
	}

	f := models.NewFileFromContent(filepath.Base(path), format, content)
	f.Separator = separator
	f.Path = path
	f.Created = w.clock()
	return f, nil
}

// encodeWindows1250 encodes utf-8 text to single byte legacy code page
func encodeWindows1250(format vo.FileFormat, s string) ([]byte, error) {
	b, err := charmap.Windows1250.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &errors.GenerationError{Format: format, Err: fmt.Errorf("windows-1250: %w", err)}
	}
	return b, nil
}

// decodeWindows1250 decodes legacy code page unless data is valid utf-8 with BOM
func decodeWindows1250(data []byte) (string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), nil
	}
	b, err := charmap.Windows1250.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// checkSingleCurrency is checkRail for formats carrying a batch control sum
func checkSingleCurrency(format vo.FileFormat, payments models.Payments, rail vo.Rail, allowed ...vo.Rail) error {
	if err := checkRail(format, payments, rail, allowed...); err != nil {
		return err
	}
	return payments.CheckCurrency()
}

// checkRail validates every payment and its rail
func checkRail(format vo.FileFormat, payments models.Payments, rail vo.Rail, allowed ...vo.Rail) error {
	if len(payments) == 0 {
		return &errors.ValidationError{Field: "payments", Msg: "no payments given", Err: errors.ErrNoPayments}
	}
	ok := false
	for _, a := range allowed {
		ok = ok || a == rail
	}
	if !ok {
		return &errors.ValidationError{Field: "rail", Value: string(rail), Msg: fmt.Sprintf("not supported by %v", format)}
	}
	for i, p := range payments {
		if p == nil {
			return &errors.ValidationError{Field: fmt.Sprintf("payments[%d]", i), Msg: "nil payment"}
		}
		if p.Rail != rail {
			return &errors.ValidationError{Field: fmt.Sprintf("payments[%d].rail", i), Value: string(p.Rail), Msg: "does not match batch rail " + string(rail)}
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
