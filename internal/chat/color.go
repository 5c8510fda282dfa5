// Package chat provides Minecraft legacy formatting codes.
package chat

import "regexp"

// SectionSign prefixes every legacy formatting code.
const SectionSign = '§'

// Color is a legacy chat formatting code. Its string form is the section sign
// followed by the code character, ready to be concatenated into a message.
type Color rune

const (
	Black       Color = '0'
	DarkBlue    Color = '1'
	DarkGreen   Color = '2'
	DarkAqua    Color = '3'
	DarkRed     Color = '4'
	DarkPurple  Color = '5'
	Gold        Color = '6'
	Gray        Color = '7'
	DarkGray    Color = '8'
	Blue        Color = '9'
	Green       Color = 'a'
	Aqua        Color = 'b'
	Red         Color = 'c'
	LightPurple Color = 'd'
	Yellow      Color = 'e'
	White       Color = 'f'

	Obfuscated    Color = 'k'
	Bold          Color = 'l'
	Strikethrough Color = 'm'
	Underline     Color = 'n'
	Italic        Color = 'o'
	Reset         Color = 'r'
)

func (c Color) String() string {
	return string([]rune{SectionSign, rune(c)})
}

var codePattern = regexp.MustCompile(`(?i)§[0-9a-fk-orx]`)

// Strip removes all legacy formatting codes from s.
func Strip(s string) string {
	return codePattern.ReplaceAllString(s, "")
}
