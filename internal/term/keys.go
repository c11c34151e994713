package term

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

const esc = 0x1b

var csiKeys = map[string]tea.KeyType{
	"A": tea.KeyUp,
	"B": tea.KeyDown,
	"C": tea.KeyRight,
	"D": tea.KeyLeft,
	"H": tea.KeyHome,
	"F": tea.KeyEnd,
	"Z": tea.KeyShiftTab,
}

// DecodeKeys turns one read of raw-mode input into key messages. Each rune
// becomes its own message so bindings match single keys. Escape sequences
// without a mapping are dropped whole.
func DecodeKeys(b []byte) []tea.KeyMsg {
	var keys []tea.KeyMsg
	for i := 0; i < len(b); {
		if b[i] == esc {
			k, n := decodeEscape(b[i:])
			if k != nil {
				keys = append(keys, *k)
			}
			i += n
			continue
		}
		k, n := decodeKey(b[i:])
		if k != nil {
			keys = append(keys, *k)
		}
		i += n
	}
	return keys
}

// decodeKey decodes a control byte or one UTF-8 rune.
func decodeKey(b []byte) (*tea.KeyMsg, int) {
	if b[0] < 0x20 || b[0] == 0x7f {
		return &tea.KeyMsg{Type: tea.KeyType(b[0])}, 1
	}
	r, n := utf8.DecodeRune(b)
	if r == utf8.RuneError && n <= 1 {
		return nil, 1
	}
	return &tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, n
}

// decodeEscape handles input starting with ESC: a lone Esc, a CSI or SS3
// sequence, or an Alt-modified key.
func decodeEscape(b []byte) (*tea.KeyMsg, int) {
	if len(b) == 1 || b[1] == esc {
		return &tea.KeyMsg{Type: tea.KeyEsc}, 1
	}
	if b[1] == '[' || b[1] == 'O' {
		j := 2
		for j < len(b) && (b[j] < 0x40 || b[j] > 0x7e) {
			j++
		}
		if j == len(b) {
			return nil, len(b)
		}
		if t, ok := csiKeys[string(b[j])]; ok && j == 2 {
			return &tea.KeyMsg{Type: t}, j + 1
		}
		return nil, j + 1
	}
	k, n := decodeKey(b[1:])
	if k == nil {
		return nil, 1 + n
	}
	k.Alt = true
	return k, 1 + n
}
