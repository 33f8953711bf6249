package discovery

import (
	"net/url"
	"sort"
	"strings"
)

// Canonicalize normalizes a URL so equivalent links collapse to one entry:
// scheme and host are lowercased, the fragment and default ports are removed,
// query parameters are sorted and a trailing slash is dropped (except root).
func Canonicalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// SameDomain reports whether link belongs to the homepage's network domain.
// A leading "www." on the homepage is ignored so subdomains match too.
func SameDomain(link, homepage string) bool {
	lu, err := url.Parse(link)
	if err != nil || lu.Host == "" {
		return false
	}
	hu, err := url.Parse(homepage)
	if err != nil || hu.Host == "" {
		return false
	}
	base := strings.TrimPrefix(strings.ToLower(hu.Hostname()), "www.")
	return strings.Contains(strings.ToLower(lu.Hostname()), base)
}
