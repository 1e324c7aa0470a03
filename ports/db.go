package ports

import "gorm.io/gorm"

type DB = *gorm.DB

type Limit int

var ErrRecordNotFound = gorm.ErrRecordNotFound

// Since limits query to records updated at or after the unix time
type Since int64
