package response

import "github.com/user/sitesearch/internal/entity"

// ActionResponse acknowledges a control request.
type ActionResponse struct {
	Result bool `json:"result"`
}

// ErrorResponse carries a failed request's reason.
type ErrorResponse struct {
	Result bool   `json:"result"`
	Error  string `json:"error"`
}

type SearchResponse struct {
	Result bool                  `json:"result"`
	Count  int                   `json:"count"`
	Data   []entity.SearchResult `json:"data"`
}

type StatisticsResponse struct {
	Result     bool               `json:"result"`
	Statistics *entity.Statistics `json:"statistics"`
}
