package pipeline

import (
	"fmt"
	"strings"

	"github.com/openjournals/ojs-pubmed/pubmed"
	"github.com/openjournals/ojs-pubmed/xmltree"
)

// Preflight describes the anchors of one export without contacting OJS.
type Preflight struct {
	Name            string
	Articles        int
	VernacularTitle string
	HasAbstract     bool
	DOI             string
	HasAuthorList   bool
	HasArticleIDs   bool
	Language        string
	// Unknown lists Article children the reorder step would drop.
	Unknown []string
	// Err is set when the file would fail before any editing.
	Err error
}

// Check inspects data the way Transform would before its first network call.
func Check(name string, data []byte) *Preflight {
	pf := &Preflight{Name: name}

	doc, err := xmltree.ParseBytes(data)
	if err != nil {
		pf.Err = articleError(name, fmt.Errorf("%w: %w", ErrMalformedInput, err))
		return pf
	}

	articles := pubmed.Articles(doc)
	pf.Articles = len(articles)
	pf.VernacularTitle, _ = pubmed.VernacularTitle(doc)
	pf.HasAbstract = doc.Find(pubmed.ElemAbstract) != nil
	if lang := doc.Find(pubmed.ElemLanguage); lang != nil {
		pf.Language = lang.Text
	}

	for _, a := range articles {
		if pf.DOI == "" {
			pf.DOI = pubmed.DOI(a)
		}
		pf.HasAuthorList = pf.HasAuthorList || a.Child(pubmed.ElemAuthorList) != nil
		pf.HasArticleIDs = pf.HasArticleIDs || a.Child(pubmed.ElemArticleIDList) != nil
		for _, c := range a.Children {
			if !pubmed.IsCanonical(c.Name) {
				pf.Unknown = append(pf.Unknown, c.Name)
			}
		}
	}

	switch {
	case strings.TrimSpace(pf.VernacularTitle) == "":
		pf.Err = articleError(name, fmt.Errorf("%w: %s", pubmed.ErrMissingAnchor, pubmed.ElemVernacularTitle))
	case !pf.HasAbstract:
		pf.Err = articleError(name, fmt.Errorf("%w: %s", pubmed.ErrMissingAnchor, pubmed.ElemAbstract))
	}
	return pf
}

// Warnings lists the steps that will be skipped and the elements that will be
// dropped.
func (pf *Preflight) Warnings() []string {
	if pf.Err != nil {
		return nil
	}

	var w []string
	switch {
	case pf.HasArticleIDs:
		w = append(w, "ArticleIdList already present; not inserted")
	case !pf.HasAuthorList:
		w = append(w, "no AuthorList; ArticleIdList and PublicationType not inserted")
	case pf.DOI == "":
		w = append(w, "no DOI in ELocationID; ArticleIdList and PublicationType not inserted")
	}
	if pf.Language != pubmed.SourceLanguage {
		w = append(w, fmt.Sprintf("Language is %q; not rewritten", pf.Language))
	}
	if len(pf.Unknown) > 0 {
		w = append(w, fmt.Sprintf("will drop %s", strings.Join(pf.Unknown, ", ")))
	}
	return w
}
