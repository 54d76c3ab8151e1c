// Package titles provides normalization helpers for scraped film titles.
//
// The cache identifies a film by the exact scraped display string; the
// normalized form produced here is a secondary lookup key only. Two distinct
// films that share a display title therefore collide, matching the behavior
// of the data source.
package titles

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	leadingArticlePattern = regexp.MustCompile(`^(the|a|an)\s+`)
	punctuationPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
	yearSuffixPattern     = regexp.MustCompile(`^(.+)\s+\((\d{4})\)$`)
	slugStripPattern      = regexp.MustCompile(`[^a-z0-9\s]`)
)

// accentFolder decomposes characters and drops combining marks so that
// "Amélie" and "Amelie" normalize to the same lookup key.
var accentFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a title, folds accents, strips a leading English
// article, removes punctuation, and collapses whitespace.
func Normalize(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	if folded, _, err := transform.String(accentFolder, title); err == nil {
		title = folded
	}
	normalized := strings.ToLower(title)
	normalized = leadingArticlePattern.ReplaceAllString(normalized, "")
	normalized = punctuationPattern.ReplaceAllString(normalized, "")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// SplitYear separates a trailing parenthesized release year from a title.
// Returns the cleaned title and zero when no year suffix is present.
func SplitYear(title string) (string, int) {
	trimmed := strings.TrimSpace(title)
	match := yearSuffixPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return trimmed, 0
	}
	year, err := strconv.Atoi(match[2])
	if err != nil {
		return trimmed, 0
	}
	return strings.TrimSpace(match[1]), year
}

// Slug converts a title to the URL-friendly form used in film page paths.
func Slug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	if folded, _, err := transform.String(accentFolder, slug); err == nil {
		slug = folded
	}
	slug = slugStripPattern.ReplaceAllString(slug, "")
	slug = whitespacePattern.ReplaceAllString(strings.TrimSpace(slug), "-")
	return slug
}

// FilmURL builds the film page URL for a title, with an optional year
// disambiguator appended to the slug.
func FilmURL(baseURL, title string, year int) string {
	base := strings.TrimRight(baseURL, "/")
	slug := Slug(title)
	if year > 0 {
		return base + "/film/" + slug + "-" + strconv.Itoa(year) + "/"
	}
	return base + "/film/" + slug + "/"
}
