package segmenter

import "unicode"

type charType uint8

const (
	charUseless charType = iota
	charArabic
	charEnglish
	charChinese
	charOtherCJK
)

// CJK Unified Ideographs, Extension A and Compatibility Ideographs.
var chineseTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3400, Hi: 0x4DBF, Stride: 1},
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1},
		{Lo: 0xF900, Hi: 0xFAFF, Stride: 1},
	},
}

// Hangul, kana and the half-width/full-width forms block.
var otherCJKTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x1100, Hi: 0x11FF, Stride: 1},
		{Lo: 0x3040, Hi: 0x30FF, Stride: 1},
		{Lo: 0x3130, Hi: 0x318F, Stride: 1},
		{Lo: 0x31F0, Hi: 0x31FF, Stride: 1},
		{Lo: 0xAC00, Hi: 0xD7AF, Stride: 1},
		{Lo: 0xFF00, Hi: 0xFFEF, Stride: 1},
	},
}

func identify(r rune) charType {
	switch {
	case isDigit(r):
		return charArabic
	case isLetter(r):
		return charEnglish
	case isChinese(r):
		return charChinese
	case unicode.Is(otherCJKTable, r):
		return charOtherCJK
	}
	return charUseless
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isChinese(r rune) bool {
	return unicode.Is(chineseTable, r)
}
