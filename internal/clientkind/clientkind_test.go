package clientkind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Kind
	}{
		{
			name: "ios sync client",
			ua:   "Mozilla/5.0 (iOS) Nextcloud-iOS/4.9.2",
			want: MobileIOS,
		},
		{
			name: "android sync client",
			ua:   "Mozilla/5.0 (Android) Nextcloud-android/3.26.0",
			want: MobileAndroid,
		},
		{
			name: "desktop sync client",
			ua:   "Mozilla/5.0 (Linux) mirall/3.12.0 (build 12345)",
			want: Desktop,
		},
		{
			name: "desktop chrome is a browser",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: Browser,
		},
		{
			name: "mobile safari is still a browser",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want: Browser,
		},
		{
			name: "empty user agent defaults to browser",
			ua:   "",
			want: Browser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromUserAgent(tt.ua))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "browser", Browser.String())
	assert.Equal(t, "mobile_ios", MobileIOS.String())
	assert.Equal(t, "mobile_android", MobileAndroid.String())
	assert.Equal(t, "desktop", Desktop.String())
}

func TestNative(t *testing.T) {
	assert.False(t, Browser.Native())
	assert.True(t, MobileIOS.Native())
	assert.True(t, MobileAndroid.Native())
	assert.True(t, Desktop.Native())
}

func TestDescribe(t *testing.T) {
	t.Run("empty user agent returns unknown device", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", Describe(""))
	})

	t.Run("chrome on desktop includes browser and OS", func(t *testing.T) {
		got := Describe("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Contains(t, got, "Chrome")
		assert.Contains(t, got, "on")
	})

	t.Run("unknown user agent still renders", func(t *testing.T) {
		got := Describe("Unknown/1.0")
		assert.Contains(t, got, "on")
		assert.NotEmpty(t, got)
	})
}
