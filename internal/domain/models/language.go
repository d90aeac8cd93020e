package models

import "strings"

// languageByExtension mirrors the editor's syntax highlighting map. The
// server derives the authoritative value with the same table, so client and
// backend can never disagree.
var languageByExtension = map[string]string{
	"js":       "javascript",
	"mjs":      "javascript",
	"jsx":      "javascript",
	"ts":       "typescript",
	"tsx":      "typescript",
	"css":      "css",
	"scss":     "scss",
	"sass":     "scss",
	"html":     "html",
	"htm":      "html",
	"json":     "json",
	"md":       "markdown",
	"markdown": "markdown",
	"txt":      "plaintext",
	"xml":      "xml",
	"yml":      "yaml",
	"yaml":     "yaml",
	"vue":      "vue",
}

// DefaultLanguage is used when an extension is unrecognized.
const DefaultLanguage = "javascript"

// LanguageForExtension maps a file extension to an editor language tag.
func LanguageForExtension(ext string) string {
	if lang, ok := languageByExtension[strings.ToLower(ext)]; ok {
		return lang
	}
	return DefaultLanguage
}
