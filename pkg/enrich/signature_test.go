package enrich

import "testing"

func TestParseSignature(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		want   Signature
	}{
		{
			name: "chrome on windows desktop",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: Signature{Browser: "Chrome", OS: "Windows", DeviceClass: "desktop"},
		},
		{
			name: "edge wins over chrome token",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			want: Signature{Browser: "Edge", OS: "Windows", DeviceClass: "desktop"},
		},
		{
			name: "chrome wins over safari token",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: Signature{Browser: "Chrome", OS: "macOS", DeviceClass: "desktop"},
		},
		{
			name: "safari on mac",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			want: Signature{Browser: "Safari", OS: "macOS", DeviceClass: "desktop"},
		},
		{
			name: "android phone is mobile not linux",
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			want: Signature{Browser: "Chrome", OS: "Android", DeviceClass: "mobile"},
		},
		{
			name: "iphone is mobile",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want: Signature{Browser: "Safari", OS: "iOS", DeviceClass: "mobile"},
		},
		{
			name: "ipad is tablet",
			ua:   "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want: Signature{Browser: "Safari", OS: "iOS", DeviceClass: "tablet"},
		},
		{
			name: "firefox on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: Signature{Browser: "Firefox", OS: "Linux", DeviceClass: "desktop"},
		},
		{
			name: "opera via opr token",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0",
			want: Signature{Browser: "Opera", OS: "Windows", DeviceClass: "desktop"},
		},
		{
			name: "empty input falls back to defaults",
			ua:   "",
			want: Signature{Browser: "Unknown", OS: "Unknown", DeviceClass: "desktop"},
		},
		{
			name: "garbage input falls back to defaults",
			ua:   "definitely not a browser",
			want: Signature{Browser: "Unknown", OS: "Unknown", DeviceClass: "desktop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSignature(tt.ua)
			if got != tt.want {
				t.Errorf("ParseSignature(%q) = %+v, want %+v", tt.ua, got, tt.want)
			}
		})
	}
}

func TestParseSignatureMemoized(t *testing.T) {
	ua := "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0.0.0 Safari/537.36"

	first := ParseSignature(ua)
	second := ParseSignature(ua)
	if first != second {
		t.Errorf("memoized parse differs: %+v vs %+v", first, second)
	}
}
