package validation

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// IsImageDataURL reports whether s looks like data:image/<type>;base64,<payload>.
func IsImageDataURL(s string) bool {
	_, _, err := splitDataURL(s)
	return err == nil
}

// IsHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DecodeImageDataURL returns the declared MIME type and decoded bytes of an image data URL.
func DecodeImageDataURL(s string) (string, []byte, error) {
	mime, payload, err := splitDataURL(s)
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode data url: %w", err)
		}
	}
	return mime, data, nil
}

func splitDataURL(s string) (string, string, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", "", fmt.Errorf("not a data url")
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", "", fmt.Errorf("data url missing payload")
	}
	meta := s[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", fmt.Errorf("data url must be base64 encoded")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if !strings.HasPrefix(mime, "image/") {
		return "", "", fmt.Errorf("data url must carry an image")
	}
	if comma == len(s)-1 {
		return "", "", fmt.Errorf("data url payload empty")
	}
	return mime, s[comma+1:], nil
}
