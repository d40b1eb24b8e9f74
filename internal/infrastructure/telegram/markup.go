package telegram

import "strings"

// markdownV2 escapes every character Telegram reserves in MarkdownV2 text.
var markdownV2 = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"~", `\~`,
	"`", "\\`",
	">", `\>`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	"=", `\=`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
	".", `\.`,
	"!", `\!`,
)

// EscapeMarkdown makes src safe to embed in a MarkdownV2 message.
func EscapeMarkdown(src string) string {
	return markdownV2.Replace(src)
}
