package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// DetailedErrorResponse carries the underlying cause and, for purchase
// failures, the order as it was left.
type DetailedErrorResponse struct {
	Error   string      `json:"error" example:"order failed, balance restored"`
	Details string      `json:"details,omitempty" example:"provider call failed (status 502): upstream down"`
	Order   interface{} `json:"order,omitempty"`
}
