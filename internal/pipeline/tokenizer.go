// Package pipeline 定义了出院小结从文本到分类器输入向量的核心流程。
package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// asciiPunctuation 与 Python string.punctuation 完全一致。
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// treebankQuotes 是 Treebank 分词规则中会被单独切成 token 的非 ASCII 引号。
const treebankQuotes = "«“‘„»”’"

// treebankContractions 对应 Treebank 分词器对缩约形式的拆分，只在完整的词边界上匹配。
var treebankContractions = map[string][2]string{
	"cannot": {"can", "not"},
	"gimme":  {"gim", "me"},
	"gonna":  {"gon", "na"},
	"gotta":  {"got", "ta"},
	"lemme":  {"lem", "me"},
	"wanna":  {"wan", "na"},
}

// wanna 的规则要求后面紧跟空白，而不是任意词边界。
const contractionNeedsSpace = "wanna"

// isSeparator 与 Python str.split() 的空白定义一致，比 unicode.IsSpace 多了 \x1c-\x1f。
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// isWordRune 对应正则 \w：字母、数字和下划线。
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// substitute 是固定的一对一替换表：ASCII 标点和数字替换为单个空格，其余字符保持不变。
func substitute(r rune) rune {
	if r >= '0' && r <= '9' {
		return ' '
	}
	if r < 0x80 && strings.ContainsRune(asciiPunctuation, r) {
		return ' '
	}
	return r
}

// Tokenize 把原始病历文本规范化为小写词序列。
// 任何输入都不会出错；空文本或只包含标点、数字的文本返回空序列。
func Tokenize(note string) []string {
	// Caser 带状态，不能在 goroutine 之间共享，所以每次调用新建
	lowered := cases.Lower(language.Und).String(note)
	text := strings.Map(substitute, lowered)

	if strings.ContainsAny(text, treebankQuotes) {
		var sb strings.Builder
		sb.Grow(len(text) + 8)
		for _, r := range text {
			if strings.ContainsRune(treebankQuotes, r) {
				sb.WriteByte(' ')
				sb.WriteRune(r)
				sb.WriteByte(' ')
				continue
			}
			sb.WriteRune(r)
		}
		text = sb.String()
	}

	fields := strings.FieldsFunc(text, isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = appendSplitContractions(tokens, f)
	}
	return tokens
}

// appendSplitContractions 把一个空白分隔的片段追加到 tokens。
// 片段中与缩约形式完全相同的词（两侧都是词边界）被拆成两个 token，其前后的非词字符各自独立成 token。
func appendSplitContractions(tokens []string, field string) []string {
	runes := []rune(field)
	start := 0
	for i := 0; i < len(runes); {
		word := isWordRune(runes[i])
		j := i + 1
		for j < len(runes) && isWordRune(runes[j]) == word {
			j++
		}
		if word {
			w := string(runes[i:j])
			if parts, ok := treebankContractions[w]; ok && (w != contractionNeedsSpace || j == len(runes)) {
				if start < i {
					tokens = append(tokens, string(runes[start:i]))
				}
				tokens = append(tokens, parts[0], parts[1])
				start = j
			}
		}
		i = j
	}
	if start < len(runes) {
		tokens = append(tokens, string(runes[start:]))
	}
	return tokens
}
