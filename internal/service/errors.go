package service

import (
	"errors"

	"gorm.io/gorm"
)

// isNotFound 统一判断记录不存在
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
