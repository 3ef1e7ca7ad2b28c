// Package textrepair provides a pure, deterministic best-effort repair for
// mis-decoded post text.
//
// The repair strategy, in order:
//  1. Input that is not valid UTF-8 is decoded as Windows-1252.
//  2. Valid UTF-8 carrying mojibake markers (runes such as 'Ã' or 'â' that
//     appear when UTF-8 bytes were decoded as Windows-1252) is reversed by
//     re-encoding the runes to Windows-1252 bytes and reinterpreting them as
//     UTF-8. A round is kept only when it yields valid UTF-8, so ordinary
//     accented text survives unchanged; the loop is bounded to also undo
//     double encoding.
//  3. The result is normalized to Unicode NFC.
package textrepair

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// maxRounds bounds the mojibake reversal; two rounds undo double encoding,
// the third guards against exotic triple-encoded input.
const maxRounds = 3

// Repair returns a best-effort corrected copy of s. Clean text comes back
// unchanged (modulo NFC normalization).
func Repair(s string) string {
	if !utf8.ValidString(s) {
		if decoded, err := charmap.Windows1252.NewDecoder().String(s); err == nil {
			s = decoded
		} else {
			s = strings.ToValidUTF8(s, string(utf8.RuneError))
		}
	}

	for round := 0; round < maxRounds && hasMojibake(s); round++ {
		reversed, err := charmap.Windows1252.NewEncoder().String(s)
		if err != nil || !utf8.ValidString(reversed) {
			break
		}
		s = reversed
	}

	return norm.NFC.String(s)
}

// mojibakeMarkers are the lead runes of common UTF-8-as-Windows-1252
// artifacts ("Ã©" for "é", "â€™" for "’", and so on).
const mojibakeMarkers = "ÃÂâ€™œ"

func hasMojibake(s string) bool {
	return strings.ContainsAny(s, mojibakeMarkers)
}
