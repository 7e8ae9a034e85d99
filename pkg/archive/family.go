package archive

import "regexp"

// Family is the naming convention of one archive lineage: a pattern
// selecting the metadata file of each document and a pattern selecting
// each page file, both capturing (document code, page code). The only
// varying behavior between lineages is these two patterns, so families
// are data records rather than types.
type Family struct {
	Name            string
	DocumentPattern *regexp.Regexp
	PagePattern     *regexp.Regexp
}

var families = []Family{
	{
		Name:            "fmp",
		DocumentPattern: regexp.MustCompile(`^([0-9]*?_[0-9]*?)_mets\.xml$`),
		PagePattern:     regexp.MustCompile(`^([0-9]*?_[0-9]*?)_([0-9_]*)\.xml$`),
	},
	{
		Name:            "books",
		DocumentPattern: regexp.MustCompile(`^([0-9]*)_metadata\.xml$`),
		PagePattern:     regexp.MustCompile(`^ALTO/([0-9]*?)_([0-9_]*)\.xml$`),
	},
	{
		Name:            "nls",
		DocumentPattern: regexp.MustCompile(`^([0-9]*)[-_]met[a-zA-Z]*\.xml$`),
		PagePattern:     regexp.MustCompile(`(?i)^alto/([0-9]*)[^a-zA-Z0-9]([0-9]*)\.xml$`),
	},
}

// Families returns the known archive families in detection order.
func Families() []Family {
	return append([]Family(nil), families...)
}

// FamilyByName returns the named family, if known.
func FamilyByName(name string) (Family, bool) {
	for _, f := range families {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}
