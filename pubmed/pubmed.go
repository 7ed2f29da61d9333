// Package pubmed holds the PubMed 2.8 ArticleSet vocabulary and the editor
// operations that rewrite an OJS PubMed export into DTD order.
package pubmed

import "github.com/openjournals/ojs-pubmed/xmltree"

// DocType is the literal document type declaration of the ArticleSet DTD.
const DocType = `<!DOCTYPE ArticleSet PUBLIC "-//NLM//DTD PubMed 2.8//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/in/PubMed.dtd">`

// XMLDeclaration is written before DocType in rendered collections.
const XMLDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

// Element names.
const (
	ElemArticleSet           = "ArticleSet"
	ElemArticle              = "Article"
	ElemJournal              = "Journal"
	ElemJournalTitle         = "JournalTitle"
	ElemReplaces             = "Replaces"
	ElemArticleTitle         = "ArticleTitle"
	ElemVernacularTitle      = "VernacularTitle"
	ElemFirstPage            = "FirstPage"
	ElemLastPage             = "LastPage"
	ElemELocationID          = "ELocationID"
	ElemLanguage             = "Language"
	ElemAuthorList           = "AuthorList"
	ElemGroupList            = "GroupList"
	ElemPublicationType      = "PublicationType"
	ElemArticleIDList        = "ArticleIdList"
	ElemArticleID            = "ArticleId"
	ElemHistory              = "History"
	ElemAbstract             = "Abstract"
	ElemOtherAbstract        = "OtherAbstract"
	ElemCopyrightInformation = "CopyrightInformation"
	ElemCoiStatement         = "CoiStatement"
	ElemObjectList           = "ObjectList"
	ElemObject               = "Object"
	ElemParam                = "Param"
	ElemReferenceList        = "ReferenceList"
	ElemArchiveCopySource    = "ArchiveCopySource"
)

// Attribute names.
const (
	AttrEIdType  = "EIdType"
	AttrIDType   = "IdType"
	AttrType     = "Type"
	AttrName     = "Name"
	AttrLanguage = "Language"
)

// Fixed vocabulary.
const (
	SourceLanguage     = "dut"
	TargetLanguage     = "NL"
	JournalArticleType = "Journal Article"
	IDTypeDOI          = "doi"
	ObjectTypeKeyword  = "keyword"
	ParamNameValue     = "value"
)

// CanonicalOrder is the child order of Article required by the DTD.
var CanonicalOrder = []string{
	ElemJournal,
	ElemReplaces,
	ElemArticleTitle,
	ElemVernacularTitle,
	ElemFirstPage,
	ElemLastPage,
	ElemELocationID,
	ElemLanguage,
	ElemAuthorList,
	ElemGroupList,
	ElemPublicationType,
	ElemArticleIDList,
	ElemHistory,
	ElemAbstract,
	ElemOtherAbstract,
	ElemCopyrightInformation,
	ElemCoiStatement,
	ElemObjectList,
	ElemReferenceList,
	ElemArchiveCopySource,
}

var canonicalIndex = func() map[string]int {
	m := make(map[string]int, len(CanonicalOrder))
	for i, name := range CanonicalOrder {
		m[name] = i
	}
	return m
}()

// IsCanonical reports whether name may appear as a child of Article.
func IsCanonical(name string) bool {
	_, ok := canonicalIndex[name]
	return ok
}

// Articles returns every Article element in doc, including a root Article.
func Articles(doc *xmltree.Document) []*xmltree.Element {
	return doc.FindAll(ElemArticle)
}

// VernacularTitle returns the text of the first VernacularTitle in doc.
func VernacularTitle(doc *xmltree.Document) (string, bool) {
	el := doc.Find(ElemVernacularTitle)
	if el == nil {
		return "", false
	}
	return el.Text, true
}

// DOI returns the normalized DOI of article from its ELocationID[@EIdType="doi"].
func DOI(article *xmltree.Element) string {
	for _, loc := range article.FindAll(ElemELocationID) {
		if t, _ := loc.Attr(AttrEIdType); t == IDTypeDOI {
			if doi := NormalizeDOI(loc.Text); doi != "" {
				return doi
			}
		}
	}
	return ""
}
