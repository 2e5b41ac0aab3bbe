// Package format escapes text destined for Telegram markdown messages.
package format

import "strings"

var mdV1Escaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"`", "\\`",
)

// EscapeMD escapes Markdown (V1) specials so arbitrary text can be embedded
// in a message sent with the Markdown parse mode.
func EscapeMD(text string) string {
	return mdV1Escaper.Replace(text)
}
