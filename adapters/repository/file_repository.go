package repository

import (
	"fmt"

	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FileRepository struct {
	db        ports.DB
	validator *validator.Validate
}

func NewFileRepository(db ports.DB, f ports.FS) (*FileRepository, error) {
	r := &FileRepository{
		db:        db,
		validator: lib.NewValidator(f),
	}
	_, err := r.FindAll(ports.Limit(1))
	return r, err
}

// Save inserts record or updates the record with the same key
func (r *FileRepository) Save(model *models.FileRecord) error {
	if err := model.Validate(r.validator); err != nil {
		return fmt.Errorf("invalid file record: %w", err)
	}
	return r.db.Transaction(func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error
	})
}

func (r *FileRepository) FindAll(flags ...interface{}) ([]*models.FileRecord, error) {
	var records []*models.FileRecord
	db := r.db
	db = db.Order("updated_at DESC").Order("file_name ASC")
	db = applyFlags(db, flags)
	err := db.Find(&records).Error
	return records, err
}

func (r *FileRepository) FindByKey(key models.FileKey) (*models.FileRecord, error) {
	var record *models.FileRecord
	err := r.db.Where("file_name = ? AND hash = ?", key.Name, key.Hash).First(&record).Error
	return record, err
}

// FindByHash returns records of the content hash regardless of the file name
func (r *FileRepository) FindByHash(hash string) ([]*models.FileRecord, error) {
	var records []*models.FileRecord
	err := r.db.Where("hash = ?", hash).Order("updated_at DESC").Find(&records).Error
	return records, err
}

func (r *FileRepository) FindAllByStatus(status vo.FileStatus, flags ...interface{}) ([]*models.FileRecord, error) {
	var records []*models.FileRecord
	db := r.db
	db = db.Order("updated_at ASC")
	db = db.Where("status = ?", status)
	db = applyFlags(db, flags)
	err := db.Find(&records).Error
	return records, err
}

func (r *FileRepository) IterateAll(callback func(*models.FileRecord) (bool, error)) error {
	return iterateAll[models.FileRecord](r.db, callback)
}
