package mets

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// dateStandard matches dates of the strict form CCYY-MM-DD (or with
	// slashes) at the start of the text.
	dateStandard = regexp.MustCompile(`^1[6-9]\d{2}(-|/)(0[1-9]|1[0-2])(-|/)(0[1-9]|[12]\d|3[01])`)
	dateLong     = regexp.MustCompile(`1[6-9]\d\d`)
	dateShort    = regexp.MustCompile(`\d\d`)

	// partID strips the "#" and similar prefixes off structLink ids.
	partID = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// ParseYear extracts years of form 16xx to 19xx from free text.
//
// Text precisely matching CCYY-MM-DD yields just the 4-digit year. Any
// other text is split on 4-digit years; a 2-digit number following a
// year is paired with that year's century, so "1847 [1846, 47]" yields
// 1846 and 1847. The result is sorted and deduplicated; unparseable
// text yields an empty list, never an error.
func ParseYear(text string) []int {
	results := []int{}
	if text == "" {
		return results
	}
	if dateStandard.MatchString(text) {
		y, _ := strconv.Atoi(text[:4])
		return []int{y}
	}

	locs := dateLong.FindAllStringIndex(text, -1)
	for i, loc := range locs {
		year := text[loc[0]:loc[1]]
		y, _ := strconv.Atoi(year)
		results = append(results, y)

		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		century := year[:2]
		for _, short := range dateShort.FindAllString(text[loc[1]:end], -1) {
			sy, _ := strconv.Atoi(century + short)
			results = append(results, sy)
		}
	}
	sort.Ints(results)
	return dedupeSorted(results)
}

// SortKey splits a page code on "_" and parses each segment as an
// integer, so page codes compare numerically rather than as strings.
func SortKey(pageCode string) []int {
	parts := strings.Split(pageCode, "_")
	key := make([]int, len(parts))
	for i, p := range parts {
		key[i], _ = strconv.Atoi(p)
	}
	return key
}

// Years returns every year found in the document's date and place text.
// Place strings sometimes embed a year, so both are scanned.
func (d *Document) Years() []int {
	return d.years.get(func() []int {
		years := append(ParseYear(d.Date()), ParseYear(d.Place())...)
		sort.Ints(years)
		return dedupeSorted(years)
	})
}

// Year returns the earliest year found, and false when there is none.
func (d *Document) Year() (int, bool) {
	years := d.Years()
	if len(years) == 0 {
		return 0, false
	}
	return years[0], true
}

func dedupeSorted(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}
