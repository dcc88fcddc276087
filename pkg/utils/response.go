package utils

// ResponseData is the JSON envelope every REST endpoint returns.
type ResponseData struct {
	Status  int         `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Results interface{} `json:"results,omitempty"`
}
