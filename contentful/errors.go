package contentful

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	ID         string // e.g. "NotFound", "AccessTokenInvalid"
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("contentful: %d %s: %s", e.StatusCode, e.ID, e.Message)
	}
	return fmt.Sprintf("contentful: %d: %s", e.StatusCode, e.Message)
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Contentful-Request-Id"),
	}
	var payload struct {
		Sys       Sys    `json:"sys"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.ID = payload.Sys.ID
		apiErr.Message = payload.Message
		if apiErr.RequestID == "" {
			apiErr.RequestID = payload.RequestID
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
