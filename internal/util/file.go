package util

import (
	"errors"
	"net/http"
	"strings"
)

// DetectMimeType sniffs the content type from the first bytes of a file.
func DetectMimeType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}

// ValidateMimeType checks a sniffed MIME type against a list of allowed
// prefixes or exact types, such as "text/" or "application/json".
func ValidateMimeType(mimeType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return nil
		}
	}
	return errors.New("invalid file type: " + mimeType)
}
