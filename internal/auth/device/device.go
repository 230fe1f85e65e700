// Package device turns User-Agent headers into short labels for login logs.
package device

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns "<browser> on <os>" or "Unknown Device" for an empty header.
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	if ua.Mobile() && !strings.Contains(os, ua.Platform()) && ua.Platform() != "" {
		os = fmt.Sprintf("%s (%s)", os, ua.Platform())
	}
	return strings.TrimSpace(fmt.Sprintf("%s on %s", browser, os))
}

// IsBot reports whether the header identifies a crawler.
func IsBot(userAgent string) bool {
	return useragent.New(userAgent).Bot()
}
