package postgres

import (
	"pharmaSupply/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func paginate(p domain.PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// orderBy sorts by column only when it is whitelisted, otherwise by fallback.
func orderBy(column string, allowed map[string]string, fallback string, order domain.SortOrder) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col, ok := allowed[column]
		if !ok {
			col = fallback
		}
		return db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: col},
			Desc:   order == domain.SortDesc,
		})
	}
}

func likePattern(s string) string {
	return "%" + s + "%"
}
