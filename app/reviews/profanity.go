package reviews

import "strings"

// defaultWords is the masked word list carried over from the storefront's
// moderation config.
var defaultWords = []string{
	"tangina", "bullshit", "gago", "putangina", "yabang", "puchaaaaa",
	"bobo", "shit", "tanga", "ulol", "pakyu", "kupal", "pota",
}

var punctuation = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ";", "",
	"(", "", ")", "", "&", "", "%", "", "$", "", "#", "", "@", "",
)

// Filter masks configured words in review comments. Comments are
// normalized first: punctuation stripped, lowercased.
type Filter struct {
	words map[string]struct{}
}

// NewFilter builds a filter over the given word list, or the default list
// when none is given.
func NewFilter(words ...string) *Filter {
	if len(words) == 0 {
		words = defaultWords
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Filter{words: set}
}

// Clean normalizes the comment and replaces each listed word with
// asterisks of the same length.
func (f *Filter) Clean(comment string) string {
	normalized := strings.ToLower(punctuation.Replace(comment))
	fields := strings.Fields(normalized)
	for i, word := range fields {
		if _, bad := f.words[word]; bad {
			fields[i] = strings.Repeat("*", len(word))
		}
	}
	return strings.Join(fields, " ")
}
