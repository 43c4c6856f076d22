package dto

type MessageResponse struct {
	Message string `json:"message"`
}

// PaginationMeta หน้าเริ่มที่ 1, pages = ceil(total/limit)
type PaginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

type PageQuery struct {
	Page  int `query:"page" validate:"min=1,max=100000"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// MaxPage * max limit ยังอยู่ในช่วง int32 ทำให้ offset ไม่ล้น
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxPage      = 100000
)

func (q *PageQuery) ApplyDefaults() {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
