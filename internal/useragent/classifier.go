// Package useragent classifies raw user-agent strings into device, OS and
// browser attributes through ordered substring and regex heuristics. It is
// best-effort: unknown or partial signatures yield empty fields, never
// errors.
package useragent

import (
	"regexp"
	"strings"
)

// Attributes is the structured classification of one user-agent string.
// Empty fields mean the signature did not reveal that attribute.
type Attributes struct {
	DeviceType     string
	DeviceBrand    string
	DeviceModel    string
	OSName         string
	OSVersion      string
	BrowserName    string
	BrowserVersion string
}

var (
	appleVersionPattern   = regexp.MustCompile(`(?:iphone os|cpu os|mac os x|os) (\d+(?:[_.]\d+)*)`)
	androidVersionPattern = regexp.MustCompile(`android (\d+(?:\.\d+)*)`)
	samsungModelPattern   = regexp.MustCompile(`\b(sm-[a-z0-9]+)`)
)

// Ordered: first match wins.
var androidBrands = []struct {
	token string
	brand string
}{
	{"samsung", "Samsung"},
	{"huawei", "Huawei"},
	{"xiaomi", "Xiaomi"},
	{"oppo", "Oppo"},
	{"vivo", "Vivo"},
	{"realme", "Realme"},
	{"infinix", "Infinix"},
	{"tecno", "Tecno"},
	{"motorola", "Motorola"},
}

var browserVersionPatterns = map[string]*regexp.Regexp{
	"Edge":    regexp.MustCompile(`edg(?:e|a|ios)?/(\d+(?:\.\d+)*)`),
	"Opera":   regexp.MustCompile(`(?:opr|opera)/(\d+(?:\.\d+)*)`),
	"Chrome":  regexp.MustCompile(`chrome/(\d+(?:\.\d+)*)`),
	"Safari":  regexp.MustCompile(`version/(\d+(?:\.\d+)*)`),
	"Firefox": regexp.MustCompile(`firefox/(\d+(?:\.\d+)*)`),
}

// Classify derives device, OS and browser attributes from a raw user-agent
// string.
func Classify(userAgent string) Attributes {
	var attrs Attributes
	if userAgent == "" {
		return attrs
	}

	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "iphone"):
		attrs.DeviceType = "Phone"
		attrs.DeviceBrand = "Apple"
		attrs.DeviceModel = "iPhone"
		attrs.OSName = "iOS"
		attrs.OSVersion = appleVersion(ua)
	case strings.Contains(ua, "ipad"):
		attrs.DeviceType = "Tablet"
		attrs.DeviceBrand = "Apple"
		attrs.DeviceModel = "iPad"
		attrs.OSName = "iPadOS"
		attrs.OSVersion = appleVersion(ua)
	case strings.Contains(ua, "android"):
		// Android UAs also contain "linux", so this branch must come
		// before the desktop checks.
		switch {
		case strings.Contains(ua, "mobile"):
			attrs.DeviceType = "Phone"
		case strings.Contains(ua, "tablet"):
			attrs.DeviceType = "Tablet"
		default:
			attrs.DeviceType = "Android Device"
		}
		attrs.OSName = "Android"
		if m := androidVersionPattern.FindStringSubmatch(ua); m != nil {
			attrs.OSVersion = m[1]
		}
		attrs.DeviceBrand = androidBrand(ua)
		if m := samsungModelPattern.FindStringSubmatch(ua); m != nil {
			attrs.DeviceModel = strings.ToUpper(m[1])
			if attrs.DeviceBrand == "" {
				attrs.DeviceBrand = "Samsung"
			}
		}
	case strings.Contains(ua, "windows"):
		attrs.DeviceType = "Desktop"
		attrs.OSName = "Windows"
	case strings.Contains(ua, "mac os x"), strings.Contains(ua, "macintosh"):
		attrs.DeviceType = "Desktop"
		attrs.DeviceBrand = "Apple"
		attrs.OSName = "macOS"
		attrs.OSVersion = appleVersion(ua)
	case strings.Contains(ua, "linux"):
		attrs.DeviceType = "Desktop"
		attrs.OSName = "Linux"
	}

	attrs.BrowserName, attrs.BrowserVersion = browser(ua)

	return attrs
}

// appleVersion extracts the OS version from an Apple platform UA, with
// underscores normalized to dots ("16_4" -> "16.4").
func appleVersion(ua string) string {
	m := appleVersionPattern.FindStringSubmatch(ua)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], "_", ".")
}

func androidBrand(ua string) string {
	for _, b := range androidBrands {
		if strings.Contains(ua, b.token) {
			return b.brand
		}
	}
	return ""
}

// browser detects the browser family and its version. Chrome-based UAs
// advertise both "chrome" and "safari" tokens, so Edge and Opera are tested
// first, Chrome requires the safari token, and plain Safari requires the
// chrome token to be absent.
func browser(ua string) (string, string) {
	var name string

	switch {
	case strings.Contains(ua, "edg"):
		name = "Edge"
	case strings.Contains(ua, "opr/"), strings.Contains(ua, "opera"):
		name = "Opera"
	case strings.Contains(ua, "chrome") && strings.Contains(ua, "safari"):
		name = "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		name = "Safari"
	case strings.Contains(ua, "firefox"):
		name = "Firefox"
	default:
		return "", ""
	}

	if m := browserVersionPatterns[name].FindStringSubmatch(ua); m != nil {
		return name, m[1]
	}

	return name, ""
}
