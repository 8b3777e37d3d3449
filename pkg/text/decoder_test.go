package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	shiftJISNihongo = []byte{0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea} // 日本語
	gbkZhongwen     = []byte{0xd6, 0xd0, 0xce, 0xc4}             // 中文
)

func TestToUTF8PassesValidUTF8(t *testing.T) {
	d := NewDecoder(nil)
	assert.Equal(t, "movie/日本語.mkv", d.ToUTF8([]byte("movie/日本語.mkv")))
	assert.Equal(t, "utf-8", d.Encoding())
}

func TestToUTF8FallsBackToShiftJIS(t *testing.T) {
	d := NewDecoder(nil)
	assert.Equal(t, "日本語", d.ToUTF8(shiftJISNihongo))
	assert.Equal(t, "shift_jis", d.Encoding())
}

func TestToUTF8IsSticky(t *testing.T) {
	d := NewDecoder([]string{"utf-8", "shift_jis"})
	assert.Equal(t, "日本語", d.ToUTF8(shiftJISNihongo))

	assert.Equal(t, "readme.txt", d.ToUTF8([]byte("readme.txt")))
	assert.Equal(t, "shift_jis", d.Encoding())
}

func TestToUTF8HonorsCandidateOrder(t *testing.T) {
	d := NewDecoder([]string{"utf-8", "gbk"})
	assert.Equal(t, "中文", d.ToUTF8(gbkZhongwen))
	assert.Equal(t, "gbk", d.Encoding())
}

func TestToUTF8ReturnsRawWhenEveryCandidateFails(t *testing.T) {
	d := NewDecoder([]string{"utf-8"})
	assert.Equal(t, string(shiftJISNihongo), d.ToUTF8(shiftJISNihongo))
}

func TestNewDecoderDropsUnknownLabels(t *testing.T) {
	d := NewDecoder([]string{"no-such-encoding", " EUC-JP "})
	assert.Len(t, d.candidates, 1)
	assert.Equal(t, "euc-jp", d.Encoding())

	d = NewDecoder([]string{"no-such-encoding"})
	assert.Len(t, d.candidates, 1)
	assert.Equal(t, "utf-8", d.Encoding())
}

func TestUnknownEncodings(t *testing.T) {
	assert.Empty(t, UnknownEncodings(DefaultEncodings))
	assert.Empty(t, UnknownEncodings([]string{"UTF8", " Shift_JIS "}))
	assert.Equal(t, []string{"bogus", "latin-9000"}, UnknownEncodings([]string{"bogus", "euc-jp", "latin-9000"}))
}
