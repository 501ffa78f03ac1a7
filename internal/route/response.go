package route

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/pscheid92/themebridge/internal/platform/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// OK renders v as a 200 JSON response. v is expected to already be a wire
// value, or something encoding/json handles directly.
func OK(v any) (*Response, error) {
	return JSON(http.StatusOK, v)
}

// Empty is the 200 "{}" acknowledgement.
func Empty() (*Response, error) {
	return &Response{Status: http.StatusOK, ContentType: contentTypeJSON, Body: []byte("{}")}, nil
}

func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.InternalError("failed to encode response", err)
	}
	return &Response{Status: status, ContentType: contentTypeJSON, Body: body}, nil
}

func NotFound(message string) (*Response, error) {
	return nil, apperrors.NotFoundError(message)
}

func BadRequest(message string) (*Response, error) {
	return nil, apperrors.ValidationError(message)
}

func InternalServerError(message string) (*Response, error) {
	return nil, apperrors.InternalError(message, nil)
}

// Decode reads the JSON body into a T. Fields are matched by name.
func Decode[T any](req *Request) (T, error) {
	var v T
	if len(req.Body) == 0 {
		return v, apperrors.ValidationError("request body is empty")
	}
	if err := json.Unmarshal(req.Body, &v); err != nil {
		return v, apperrors.ValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	return v, nil
}
