// Package enrich derives request context from raw client signals: the
// browser/OS/device classification of a client signature string and the
// originating network address behind layered proxy headers.
package enrich

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Signature is the classification derived from a raw client signature string
type Signature struct {
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	DeviceClass string `json:"device"`
}

// rule matches when any of its tokens appears in the lowercased signature.
// Rules are evaluated in order and the first match wins, so specificity is
// encoded purely by position: "edg" must sit ahead of "chrome", "chrome"
// ahead of "safari", "android" and the iOS tokens ahead of "mac" and "linux".
// The order is normative client-visible behavior, not an optimization.
type rule struct {
	name   string
	tokens []string
}

var browserRules = []rule{
	{"Edge", []string{"edg"}},
	{"Opera", []string{"opr", "opera"}},
	{"Chrome", []string{"chrome", "crios"}},
	{"Safari", []string{"safari"}},
	{"Firefox", []string{"firefox", "fxios"}},
	{"Internet Explorer", []string{"msie", "trident"}},
}

var osRules = []rule{
	{"Windows", []string{"windows"}},
	{"Android", []string{"android"}},
	{"iOS", []string{"iphone", "ipad", "ipod"}},
	{"macOS", []string{"mac os", "macintosh"}},
	{"Linux", []string{"linux", "x11"}},
	{"ChromeOS", []string{"cros"}},
}

var deviceRules = []rule{
	{"tablet", []string{"ipad", "tablet", "kindle"}},
	{"mobile", []string{"mobi", "iphone", "android"}},
}

const (
	unknownValue  = "Unknown"
	defaultDevice = "desktop"
)

// parseCache memoizes classifications; signatures repeat heavily within a
// deployment's client population.
var parseCache, _ = lru.New[string, Signature](1024)

// ParseSignature classifies a raw client signature string. It is pure,
// deterministic, and total: unmatched input yields Unknown browser and OS
// and the permissive "desktop" device class.
func ParseSignature(raw string) Signature {
	if cached, ok := parseCache.Get(raw); ok {
		return cached
	}

	lowered := strings.ToLower(raw)

	sig := Signature{
		Browser:     matchFirst(lowered, browserRules, unknownValue),
		OS:          matchFirst(lowered, osRules, unknownValue),
		DeviceClass: matchFirst(lowered, deviceRules, defaultDevice),
	}

	parseCache.Add(raw, sig)
	return sig
}

func matchFirst(lowered string, rules []rule, fallback string) string {
	for _, r := range rules {
		for _, token := range r.tokens {
			if strings.Contains(lowered, token) {
				return r.name
			}
		}
	}
	return fallback
}
