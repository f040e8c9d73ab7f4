package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "parisdash/internal/errors"
)

// Response is the success envelope of every API answer
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Message   string    `json:"message,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// Render implements render.Renderer
func (resp *Response) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusOK)
	return nil
}

// Metadata describes a list answer
type Metadata struct {
	Count      *int           `json:"count,omitempty"`
	Resource   string         `json:"resource,omitempty"`
	Filters    map[string]any `json:"filters,omitempty"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// Pagination is the page window of a paginated list
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResponse wraps data in the success envelope
func NewResponse(data any) *Response {
	return &Response{
		Success:   true,
		Data:      data,
		Timestamp: apierrors.Timestamp(time.Now()),
	}
}

// WithMessage sets the optional message
func (resp *Response) WithMessage(msg string) *Response {
	resp.Message = msg
	return resp
}

// WithMetadata sets the optional metadata
func (resp *Response) WithMetadata(m *Metadata) *Response {
	resp.Metadata = m
	return resp
}

// Paginate returns page number page (1-based) of items. A page past the end
// is empty.
func Paginate[T any](items []T, page, pageSize int) ([]T, *Pagination) {
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	p := &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return []T{}, p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], p
}
