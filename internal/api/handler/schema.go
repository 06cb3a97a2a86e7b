package handler

// The success envelope returned by every endpoint. Errors never use this
// type; they are rendered by the central error handler.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(data any) envelope {
	return envelope{Success: true, Data: data}
}

func okMessage(msg string) envelope {
	return envelope{Success: true, Message: msg}
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func paginate(total int64, page, limit int) paginationResponse {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return paginationResponse{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

type listResponse struct {
	Items      any                `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}
