package culture

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements は本文として扱わない要素。
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// ExtractText はHTMLから表示テキストを抽出する。
// script/style等の中身は除外し、連続する空白は1つにまとめる。
func ExtractText(htmlBody []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	var sb strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")

		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if skippedElements[string(tn)] {
				skipDepth++
			}
			// 要素境界で単語が連結しないよう区切る
			sb.WriteByte(' ')

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if skippedElements[string(tn)] && skipDepth > 0 {
				skipDepth--
			}
			sb.WriteByte(' ')

		case html.SelfClosingTagToken:
			sb.WriteByte(' ')

		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}
