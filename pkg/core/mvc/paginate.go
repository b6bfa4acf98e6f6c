package mvc

import (
	"gorm.io/gorm"
)

type Page struct {
	PageNum int         `json:"pageNum" query:"pageNum"`
	Size    int         `json:"size" query:"size"`
	Sort    interface{} `json:"-" query:"-"`
}

// Normalize 补齐页码和页大小
func (page *Page) Normalize() (int, int) {
	pageNum := page.PageNum
	size := page.Size

	if pageNum <= 0 {
		pageNum = 1
	}
	if size <= 0 {
		size = 10
	}
	return pageNum, size
}

func Paginate(page *Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page == nil {
			return db
		}
		pageNum, size := page.Normalize()
		offset := (pageNum - 1) * size
		return db.Offset(offset).Limit(size)
	}
}
