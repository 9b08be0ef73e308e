// Package clientkind classifies inbound login attempts by the client that
// made them. Dedicated sync clients get the native app-token handoff;
// everything else, including mobile browsers, goes through the browser
// redirect.
package clientkind

import (
	"strings"

	"github.com/mssola/useragent"
)

// Kind is the client classification driving handoff selection.
type Kind int

const (
	Browser Kind = iota
	MobileIOS
	MobileAndroid
	Desktop
)

func (k Kind) String() string {
	switch k {
	case MobileIOS:
		return "mobile_ios"
	case MobileAndroid:
		return "mobile_android"
	case Desktop:
		return "desktop"
	default:
		return "browser"
	}
}

// Native reports whether the client expects the nc:// app-token handoff.
func (k Kind) Native() bool {
	return k == MobileIOS || k == MobileAndroid || k == Desktop
}

// FromUserAgent classifies a raw User-Agent header. Only the dedicated
// client signatures count as native; an iPhone running Safari is still a
// browser.
func FromUserAgent(ua string) Kind {
	l := strings.ToLower(ua)
	switch {
	case strings.Contains(l, "nextcloud-ios") || strings.Contains(l, "ios-client"):
		return MobileIOS
	case strings.Contains(l, "nextcloud-android") || strings.Contains(l, "android-client"):
		return MobileAndroid
	case strings.Contains(l, "mirall") || strings.Contains(l, "csyncoclient"):
		return Desktop
	default:
		return Browser
	}
}

// Describe renders a human-readable client description for logs and audit
// events, e.g. "Chrome on Mac OS X".
func Describe(ua string) string {
	if ua == "" {
		return "Unknown Device"
	}
	parsed := useragent.New(ua)
	name, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	if name == "" {
		name = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return name + " on " + os
}
