package collections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// decodeResponse turns a resty response into T or an APIError. Every
// operation goes through here so failed calls look the same to callers.
func decodeResponse[T any](resp *resty.Response) (*T, error) {
	if !resp.IsSuccess() {
		return nil, errorFromResponse(resp.StatusCode(), resp.Status(), resp.Body())
	}
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body (status %d)", resp.StatusCode())
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func errorFromResponse(status int, statusLine string, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && gjson.ValidBytes(trimmed) {
		parsed := gjson.ParseBytes(trimmed)
		detail := parsed.Get("detail")
		switch {
		case detail.IsObject():
			apiErr.Message = detail.Get("message").String()
			apiErr.Code = detail.Get("error_code").String()
		case detail.Type == gjson.String:
			apiErr.Message = detail.String()
		}
		if apiErr.Message == "" {
			apiErr.Message = parsed.Get("message").String()
		}
		if apiErr.Code == "" {
			apiErr.Code = parsed.Get("code").String()
		}
	} else {
		// Only unparseable bodies fall back to the status line.
		apiErr.Message = statusText(status, statusLine)
	}
	if apiErr.Message == "" {
		apiErr.Message = DefaultErrorMessage
	}
	return apiErr
}

// statusText strips the numeric code from a "503 Service Unavailable" status line.
func statusText(status int, statusLine string) string {
	text := strings.TrimSpace(statusLine)
	if code, rest, found := strings.Cut(text, " "); found {
		if _, err := strconv.Atoi(code); err == nil {
			text = strings.TrimSpace(rest)
		}
	} else if _, err := strconv.Atoi(text); err == nil {
		text = ""
	}
	if text == "" {
		text = http.StatusText(status)
	}
	return text
}
