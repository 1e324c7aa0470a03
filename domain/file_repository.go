package domain

import (
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
)

type FileRepository interface {
	Save(model *models.FileRecord) error
	FindAll(flags ...interface{}) ([]*models.FileRecord, error)
	FindByKey(key models.FileKey) (*models.FileRecord, error)
	FindByHash(hash string) ([]*models.FileRecord, error)
	FindAllByStatus(status vo.FileStatus, flags ...interface{}) ([]*models.FileRecord, error)
	IterateAll(func(*models.FileRecord) (bool, error)) error
}
