package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		want   string
		family Family
		ok     bool
	}{
		{name: "english", code: "en", want: "en", family: Latin, ok: true},
		{name: "japanese", code: "ja", want: "ja", family: CJK, ok: true},
		{name: "region subtag", code: "zh-Hant", want: "zh", family: CJK, ok: true},
		{name: "underscore separator", code: "pt_BR", want: "pt", family: Latin, ok: true},
		{name: "korean", code: "ko", want: "ko", family: Hangul, ok: true},
		{name: "unsupported language degrades to latin", code: "ru", want: "ru", family: Latin, ok: false},
		{name: "malformed code falls back to default", code: "not a tag!", want: Default, family: Latin, ok: false},
		{name: "empty code", code: "", want: Default, family: Latin, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ok := Resolve(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, l.Code)
			assert.Equal(t, tt.family, l.Family)
		})
	}
}

func TestResolve_UnknownLanguageHasDisplayName(t *testing.T) {
	l, ok := Resolve("ru")
	assert.False(t, ok)
	assert.Equal(t, "Russian", l.Name)
}

func TestSupported(t *testing.T) {
	codes := Supported()
	assert.Contains(t, codes, "ja")
	assert.Contains(t, codes, "vi")
	assert.IsIncreasing(t, codes)
}

func TestSegmenterBinding(t *testing.T) {
	ja, _ := Lookup("ja")
	zh, _ := Lookup("zh")
	ko, _ := Lookup("ko")
	assert.Equal(t, SegmenterKagome, ja.Segmenter)
	assert.Equal(t, SegmenterGse, zh.Segmenter)
	assert.Empty(t, ko.Segmenter)
}
