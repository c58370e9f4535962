package engine

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/jthickma/webapp/internal/core/errs"
)

const maxURLLength = 2048

// scheme, then a DNS name, localhost or dotted quad, optional port, optional
// path or query without whitespace
var urlShape = regexp.MustCompile(`(?i)^(?:http|ftp)s?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+(?:[A-Z]{2,6}\.?|[A-Z0-9-]{2,}\.?)|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

var dottedQuad = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// ValidateURL checks the shape of raw and returns its lower-cased host.
func ValidateURL(raw string) (string, error) {
	if raw == "" || len(raw) > maxURLLength || !urlShape.MatchString(raw) {
		return "", errs.New(errs.KindInvalidURL, "Invalid URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errs.Wrap(errs.KindInvalidURL, "Invalid URL", err)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return "", errs.New(errs.KindInvalidURL, "Invalid URL")
	}
	if dottedQuad.MatchString(host) && net.ParseIP(host) == nil {
		return "", errs.New(errs.KindInvalidURL, "Invalid URL")
	}
	return host, nil
}
