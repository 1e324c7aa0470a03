package models

import (
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/go-playground/validator/v10"
)

// FileRecord is journal entry of the last known state of a file
// seen by this process
type FileRecord struct {
	FileName     string        `gorm:"primaryKey;not null" validate:"required"`
	Hash         string        `gorm:"primaryKey;not null" validate:"required"`
	Format       vo.FileFormat `gorm:"string"`
	Status       vo.FileStatus `gorm:"index;not null" validate:"required"`
	BankFileID   string        `gorm:"index"`
	BankFileName string        `gorm:"string"`
	Reason       string        `gorm:"string"`
	Transitions  int           `gorm:"int64" validate:"min=0"`
	UpdatedAt    int64         `gorm:"autoUpdateTime"`
}

func (model *FileRecord) Validate(val *validator.Validate) error {
	return val.Struct(model)
}

func (model *FileRecord) Key() FileKey {
	return FileKey{Name: model.FileName, Hash: model.Hash}
}
