package pubmed

import (
	"strings"

	"github.com/openjournals/ojs-pubmed/xmltree"
)

// InsertArticleTitle places an ArticleTitle holding title directly after the
// VernacularTitle of every Article. An existing ArticleTitle in that Article is
// replaced, since the DTD allows one. Articles without a VernacularTitle are left alone.
func InsertArticleTitle(doc *xmltree.Document, title string) Result {
	const op = OpInsertArticleTitle
	if strings.TrimSpace(title) == "" {
		return skipped(op, "empty title")
	}

	count := 0
	for _, article := range Articles(doc) {
		anchor := article.Child(ElemVernacularTitle)
		if anchor == nil {
			continue
		}
		for _, old := range article.ChildrenNamed(ElemArticleTitle) {
			article.RemoveChild(old)
		}
		anchor.InsertAfter(xmltree.NewText(ElemArticleTitle, title))
		count++
	}

	if count == 0 {
		return skipped(op, "no "+ElemVernacularTitle+" element")
	}
	return applied(op, count)
}

// ReplaceVernacularTitle overwrites the text of every Article's VernacularTitle.
func ReplaceVernacularTitle(doc *xmltree.Document, text string) Result {
	const op = OpReplaceVernacularTitle
	if strings.TrimSpace(text) == "" {
		return skipped(op, "empty title")
	}

	count := 0
	for _, article := range Articles(doc) {
		if el := article.Child(ElemVernacularTitle); el != nil {
			el.Text = text
			count++
		}
	}

	if count == 0 {
		return skipped(op, "no "+ElemVernacularTitle+" element")
	}
	return applied(op, count)
}

// ReplaceJournalTitle overwrites the first JournalTitle in the document.
func ReplaceJournalTitle(doc *xmltree.Document, abbreviation string) Result {
	const op = OpReplaceJournalTitle
	if strings.TrimSpace(abbreviation) == "" {
		return skipped(op, "empty journal abbreviation")
	}

	el := doc.Find(ElemJournalTitle)
	if el == nil {
		return skipped(op, "no "+ElemJournalTitle+" element")
	}
	el.Text = abbreviation
	return applied(op, 1)
}

// ReplaceLanguageTag rewrites every Language whose text is exactly "dut" to "NL".
// Any other value is left untouched.
func ReplaceLanguageTag(doc *xmltree.Document) Result {
	const op = OpReplaceLanguageTag

	langs := doc.FindAll(ElemLanguage)
	if len(langs) == 0 {
		return skipped(op, "no "+ElemLanguage+" element")
	}

	count := 0
	for _, el := range langs {
		if el.Text == SourceLanguage {
			el.Text = TargetLanguage
			count++
		}
	}

	if count == 0 {
		return skipped(op, "no "+SourceLanguage+" language code")
	}
	return applied(op, count)
}

// InsertArticleIDList builds ArticleIdList/ArticleId[@IdType="doi"] from the
// Article's DOI ELocationID and inserts it after AuthorList. Articles lacking
// either the DOI or the AuthorList, or already carrying an ArticleIdList, are skipped.
func InsertArticleIDList(doc *xmltree.Document) Result {
	const op = OpInsertArticleIDList

	count := 0
	for _, article := range Articles(doc) {
		if article.Child(ElemArticleIDList) != nil {
			continue
		}
		authors := article.Child(ElemAuthorList)
		if authors == nil {
			continue
		}
		doi := DOI(article)
		if doi == "" {
			continue
		}

		list := xmltree.NewElement(ElemArticleIDList)
		list.AppendChild(xmltree.NewText(ElemArticleID, doi, xmltree.Attr{Name: AttrIDType, Value: IDTypeDOI}))
		authors.InsertAfter(list)
		count++
	}

	if count == 0 {
		return skipped(op, "no "+ElemAuthorList+" with a DOI")
	}
	return applied(op, count)
}

// InsertPublicationType inserts PublicationType "Journal Article" right before
// the ArticleIdList of every Article that also has an AuthorList.
func InsertPublicationType(doc *xmltree.Document) Result {
	const op = OpInsertPublicationType

	count := 0
	for _, article := range Articles(doc) {
		ids := article.Child(ElemArticleIDList)
		if ids == nil || article.Child(ElemAuthorList) == nil {
			continue
		}
		if hasPublicationType(article, JournalArticleType) {
			continue
		}
		ids.InsertBefore(xmltree.NewText(ElemPublicationType, JournalArticleType))
		count++
	}

	if count == 0 {
		return skipped(op, "no "+ElemArticleIDList+" with "+ElemAuthorList)
	}
	return applied(op, count)
}

func hasPublicationType(article *xmltree.Element, text string) bool {
	for _, el := range article.ChildrenNamed(ElemPublicationType) {
		if strings.TrimSpace(el.Text) == text {
			return true
		}
	}
	return false
}

// InsertKeywordsAfterAbstract inserts an ObjectList holding one keyword Object
// per keyword directly after the first Abstract. A document without an Abstract
// cannot satisfy the DTD and yields a Fatal result.
func InsertKeywordsAfterAbstract(doc *xmltree.Document, keywords []string) Result {
	const op = OpInsertKeywords

	abstract := doc.Find(ElemAbstract)
	if abstract == nil {
		return fatal(op, ElemAbstract)
	}

	list := xmltree.NewElement(ElemObjectList)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		obj := xmltree.NewElement(ElemObject, xmltree.Attr{Name: AttrType, Value: ObjectTypeKeyword})
		obj.AppendChild(xmltree.NewText(ElemParam, kw, xmltree.Attr{Name: AttrName, Value: ParamNameValue}))
		list.AppendChild(obj)
	}
	if len(list.Children) == 0 {
		return skipped(op, "no keywords")
	}

	if !abstract.InsertAfter(list) {
		// Abstract is the document root; nowhere to place a sibling.
		return fatal(op, ElemArticle)
	}
	return applied(op, len(list.Children))
}

// RefurbishAbstracts replaces the first Abstract's text with the English
// abstract and appends the displaced text as OtherAbstract[@Language="NL"] to
// the owning Article.
func RefurbishAbstracts(doc *xmltree.Document, english string) Result {
	const op = OpRefurbishAbstracts

	abstract := doc.Find(ElemAbstract)
	if abstract == nil {
		return fatal(op, ElemAbstract)
	}
	if strings.TrimSpace(english) == "" {
		return skipped(op, "no English abstract")
	}

	original := abstract.Text
	abstract.Text = english

	if strings.TrimSpace(original) == "" {
		return applied(op, 1)
	}

	owner := abstract.Ancestor(ElemArticle)
	if owner == nil {
		if articles := Articles(doc); len(articles) > 0 {
			owner = articles[0]
		} else {
			owner = doc.Root
		}
	}
	owner.AppendChild(xmltree.NewText(ElemOtherAbstract, original, xmltree.Attr{Name: AttrLanguage, Value: TargetLanguage}))
	return applied(op, 2)
}

// ReorderArticleElements rearranges the children of every Article into
// CanonicalOrder. Repeated elements keep their relative order. Children whose
// name is not in CanonicalOrder are removed and listed in Result.Dropped.
func ReorderArticleElements(doc *xmltree.Document) Result {
	const op = OpReorderElements

	articles := Articles(doc)
	if len(articles) == 0 {
		return skipped(op, "no "+ElemArticle+" element")
	}

	var dropped []string
	for _, article := range articles {
		buckets := make([][]*xmltree.Element, len(CanonicalOrder))
		for _, c := range article.Children {
			i, ok := canonicalIndex[c.Name]
			if !ok {
				dropped = append(dropped, c.Name)
				continue
			}
			buckets[i] = append(buckets[i], c)
		}

		ordered := make([]*xmltree.Element, 0, len(article.Children))
		for _, b := range buckets {
			ordered = append(ordered, b...)
		}
		article.SetChildren(ordered)
	}

	res := applied(op, len(articles))
	res.Dropped = dropped
	return res
}
