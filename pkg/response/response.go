package response

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Page wraps one page of a listing.
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Data:       data,
	}
}

// Paginated is Success with a Page payload.
func Paginated(statusCode int, items interface{}, total int64, page, limit int) Response {
	return Success(statusCode, Page{Items: items, Total: total, Page: page, Limit: limit})
}

func Error(statusCode int, err string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      err,
	}
}
