package nethttp

import (
	"fmt"
	"net/http"
	"strings"
)

// Flags control HTTP load setup.
type Flags struct {
	HeaderMap   map[string]string
	URL         string
	ContentType string
	NoKeepalive bool
	HTTP3       bool
}

// ParseHeaders builds header map from "Name: value" lines.
func ParseHeaders(lines []string) (map[string]string, error) {
	headers := make(map[string]string, len(lines))

	for _, h := range lines {
		name, value, found := strings.Cut(h, ":")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected Name: value", h)
		}

		headers[http.CanonicalHeaderKey(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	return headers, nil
}
