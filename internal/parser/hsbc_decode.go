package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// HSBC México statements embed a font whose byte codes follow EBCDIC (code
// page 037) and carry no ToUnicode map. The native extractor then renders
// each byte through PDFDocEncoding: "I" (0xC9) arrives as 'É', "5" (0xF5) as
// 'õ' and the space (0x40) as '@'. Decoding maps every rune back to its byte
// and reads the byte as EBCDIC.

// pdfDocRunes is PDFDocEncoding for the codes where it differs from
// Latin-1. Codes 0x20-0x7E are ASCII and 0xA1-0xFF are Latin-1.
var pdfDocRunes = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙', 0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…', 0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰', 0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ', 0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł', 0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž',
	0xA0: '€',
}

// glyphBytes is the inverse of the extractor's single-byte rendering.
var glyphBytes = func() map[rune]byte {
	m := make(map[rune]byte, 256)
	for b := 0x20; b <= 0x7E; b++ {
		m[rune(b)] = byte(b)
	}
	for b := 0xA1; b <= 0xFF; b++ {
		m[rune(b)] = byte(b)
	}
	for b, r := range pdfDocRunes {
		m[r] = b
	}
	return m
}()

// hsbcFontOverrides are the glyphs where the statement font departs from
// code page 037.
var hsbcFontOverrides = map[byte]rune{
	0x27: '-',
	0x4F: '*',
	0xAC: '-',
	0xBE: '\'',
	0xE1: '-',
	0xEE: 'Ñ',
	0xFE: 'ú',
}

// decodeGlyph returns the text a rendered glyph stands for.
func decodeGlyph(r rune) (rune, bool) {
	b, ok := glyphBytes[r]
	if !ok {
		return r, false
	}
	if o, ok := hsbcFontOverrides[b]; ok {
		return o, true
	}
	return charmap.CodePage037.DecodeByte(b), true
}

// isEncodedAlnum reports whether r is how the extractor renders an EBCDIC
// letter or digit. None of those bytes land on ASCII letters or digits.
func isEncodedAlnum(r rune) bool {
	b, ok := glyphBytes[r]
	if !ok || b < 0x80 {
		return false
	}
	d, _ := decodeGlyph(r)
	return unicode.IsLetter(d) || unicode.IsDigit(d)
}

// needsHSBCDecoding reports whether text was rendered from the EBCDIC font:
// encoded letters and digits outnumber plain ASCII ones. Clean Spanish text
// has a few accented letters at most and must not be decoded, since the
// mapping turns ordinary letters into punctuation ('a' into '/').
func needsHSBCDecoding(text string) bool {
	encoded, plain := 0, 0
	for _, r := range text {
		switch {
		case r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			plain++
		case isEncodedAlnum(r):
			encoded++
		}
	}
	return encoded > plain
}

// decodeHSBC rewrites extractor glyphs to plain text. Whitespace comes from
// the extractor's own word and line joins and is kept, as is any rune
// outside the single-byte range.
func decodeHSBC(encoded string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		if d, ok := decodeGlyph(r); ok {
			return d
		}
		return r
	}, encoded)
}

// decodeHSBCPage decodes the text and the words of an encoded page. Each is
// checked on its own since the pdftotext fallback may have replaced the
// text while the words still come from the native extractor.
func decodeHSBCPage(page models.PageText) models.PageText {
	out := page
	if needsHSBCDecoding(page.Text) {
		out.Text = decodeHSBC(page.Text)
	}
	if len(page.Words) == 0 {
		return out
	}

	var joined strings.Builder
	for _, w := range page.Words {
		joined.WriteString(w.Text)
		joined.WriteByte(' ')
	}
	if !needsHSBCDecoding(joined.String()) {
		return out
	}
	out.Words = make([]models.WordInfo, len(page.Words))
	for i, w := range page.Words {
		w.Text = decodeHSBC(w.Text)
		out.Words[i] = w
	}
	return out
}
