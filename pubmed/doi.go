package pubmed

import "strings"

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
	"DOI:",
}

// NormalizeDOI strips resolver URL and scheme prefixes, leaving the bare "10.x/y" form.
func NormalizeDOI(value string) string {
	value = strings.TrimSpace(value)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(value, prefix) {
			value = strings.TrimSpace(strings.TrimPrefix(value, prefix))
			break
		}
	}
	return value
}
