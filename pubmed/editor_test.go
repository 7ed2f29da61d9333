package pubmed_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/openjournals/ojs-pubmed/pubmed"
	"github.com/openjournals/ojs-pubmed/xmltree"
)

const exportXML = `<?xml version="1.0" encoding="UTF-8"?>
<ArticleSet>
  <Article>
    <Journal>
      <PublisherName>Open Journals</PublisherName>
      <JournalTitle>Tijdschrift voor Geneeskunde</JournalTitle>
      <Issn>1234-5678</Issn>
    </Journal>
    <VernacularTitle>Evaluatie van X</VernacularTitle>
    <FirstPage LZero="save">1</FirstPage>
    <ELocationID EIdType="doi">https://doi.org/10.1234/tvg.5678</ELocationID>
    <Language>dut</Language>
    <AuthorList>
      <Author>
        <FirstName>Jan</FirstName>
        <LastName>Jansen</LastName>
      </Author>
    </AuthorList>
    <History>
      <PubDate PubStatus="received"><Year>2024</Year></PubDate>
    </History>
    <Abstract>Dit is de samenvatting</Abstract>
  </Article>
</ArticleSet>`

func parse(t *testing.T, s string) *xmltree.Document {
	t.Helper()
	doc, err := xmltree.ParseString(s)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func childNames(el *xmltree.Element) string {
	names := make([]string, len(el.Children))
	for i, c := range el.Children {
		names[i] = c.Name
	}
	return strings.Join(names, ",")
}

func TestInsertArticleTitle(t *testing.T) {
	doc := parse(t, exportXML)

	res := pubmed.InsertArticleTitle(doc, "Evaluation of X")
	if res.Status != pubmed.Applied || res.Count != 1 {
		t.Fatalf("result = %+v", res)
	}

	vt := doc.Find("VernacularTitle")
	next := vt.Parent().Children[vt.Index()+1]
	if next.Name != "ArticleTitle" || next.Text != "Evaluation of X" {
		t.Errorf("sibling after VernacularTitle = <%s>%s", next.Name, next.Text)
	}

	// A second insertion replaces instead of duplicating.
	pubmed.InsertArticleTitle(doc, "Evaluation of Y")
	titles := doc.FindAll("ArticleTitle")
	if len(titles) != 1 || titles[0].Text != "Evaluation of Y" {
		t.Errorf("expected one replaced ArticleTitle, got %d", len(titles))
	}
}

func TestInsertArticleTitleMissingAnchor(t *testing.T) {
	doc := parse(t, `<ArticleSet><Article><Abstract>a</Abstract></Article></ArticleSet>`)

	res := pubmed.InsertArticleTitle(doc, "Evaluation of X")
	if res.Status != pubmed.Skipped {
		t.Errorf("Status = %s, want skipped", res.Status)
	}
	if doc.Find("ArticleTitle") != nil {
		t.Error("ArticleTitle inserted without anchor")
	}
}

func TestInsertArticleTitlePerArticle(t *testing.T) {
	doc := parse(t, `<ArticleSet>
<Article><VernacularTitle>A</VernacularTitle></Article>
<Article><Abstract>no title</Abstract></Article>
<Article><VernacularTitle>C</VernacularTitle></Article>
</ArticleSet>`)

	res := pubmed.InsertArticleTitle(doc, "T")
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}
	articles := pubmed.Articles(doc)
	if articles[1].Child("ArticleTitle") != nil {
		t.Error("Article without VernacularTitle should be skipped")
	}
}

func TestReplaceVernacularTitle(t *testing.T) {
	doc := parse(t, exportXML)

	res := pubmed.ReplaceVernacularTitle(doc, "Evaluatie van X: een studie")
	if res.Status != pubmed.Applied {
		t.Fatalf("Status = %s", res.Status)
	}
	if got := doc.Find("VernacularTitle").Text; got != "Evaluatie van X: een studie" {
		t.Errorf("VernacularTitle = %q", got)
	}

	if res := pubmed.ReplaceVernacularTitle(doc, ""); res.Status != pubmed.Skipped {
		t.Errorf("empty text: Status = %s, want skipped", res.Status)
	}
}

func TestReplaceJournalTitle(t *testing.T) {
	doc := parse(t, exportXML)

	if res := pubmed.ReplaceJournalTitle(doc, "Tijdschr Geneeskd"); res.Status != pubmed.Applied {
		t.Fatalf("Status = %s", res.Status)
	}
	if got := doc.Find("JournalTitle").Text; got != "Tijdschr Geneeskd" {
		t.Errorf("JournalTitle = %q", got)
	}

	bare := parse(t, `<Article><Language>dut</Language></Article>`)
	if res := pubmed.ReplaceJournalTitle(bare, "X"); res.Status != pubmed.Skipped {
		t.Errorf("missing JournalTitle: Status = %s, want skipped", res.Status)
	}
}

func TestReplaceLanguageTag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dut", "NL"},
		{"DUT", "DUT"},
		{" dut", " dut"},
		{"dutch", "dutch"},
		{"eng", "eng"},
		{"NL", "NL"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lang := xmltree.NewText("Language", tt.input)
			article := xmltree.NewElement("Article")
			article.AppendChild(lang)
			doc := &xmltree.Document{Root: article}

			res := pubmed.ReplaceLanguageTag(doc)
			if lang.Text != tt.want {
				t.Errorf("Language %q became %q, want %q", tt.input, lang.Text, tt.want)
			}
			wantStatus := pubmed.Skipped
			if tt.input == "dut" {
				wantStatus = pubmed.Applied
			}
			if res.Status != wantStatus {
				t.Errorf("Status = %s, want %s", res.Status, wantStatus)
			}
		})
	}
}

func TestReplaceLanguageTagEveryNode(t *testing.T) {
	doc := parse(t, `<ArticleSet>
<Article><Language>dut</Language><Language>eng</Language></Article>
<Article><Language>dut</Language></Article>
</ArticleSet>`)

	res := pubmed.ReplaceLanguageTag(doc)
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}
	var got []string
	for _, l := range doc.FindAll("Language") {
		got = append(got, l.Text)
	}
	if strings.Join(got, ",") != "NL,eng,NL" {
		t.Errorf("languages = %v", got)
	}
}

func TestInsertArticleIDList(t *testing.T) {
	doc := parse(t, exportXML)

	res := pubmed.InsertArticleIDList(doc)
	if res.Status != pubmed.Applied {
		t.Fatalf("result = %+v", res)
	}

	authors := doc.Find("AuthorList")
	next := authors.Parent().Children[authors.Index()+1]
	if next.Name != "ArticleIdList" {
		t.Fatalf("sibling after AuthorList = %s", next.Name)
	}
	id := next.Child("ArticleId")
	if id == nil || id.Text != "10.1234/tvg.5678" {
		t.Fatalf("ArticleId = %+v", id)
	}
	if v, _ := id.Attr("IdType"); v != "doi" {
		t.Errorf("IdType = %q", v)
	}

	if res := pubmed.InsertArticleIDList(doc); res.Status != pubmed.Skipped {
		t.Errorf("second run: Status = %s, want skipped", res.Status)
	}
	if n := len(doc.FindAll("ArticleIdList")); n != 1 {
		t.Errorf("ArticleIdList count = %d", n)
	}
}

func TestInsertArticleIDListSkips(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no doi", `<Article><AuthorList/></Article>`},
		{"other id type", `<Article><ELocationID EIdType="pii">123</ELocationID><AuthorList/></Article>`},
		{"empty doi", `<Article><ELocationID EIdType="doi"> </ELocationID><AuthorList/></Article>`},
		{"no author list", `<Article><ELocationID EIdType="doi">10.1/x</ELocationID></Article>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.input)
			if res := pubmed.InsertArticleIDList(doc); res.Status != pubmed.Skipped {
				t.Errorf("Status = %s, want skipped", res.Status)
			}
			if doc.Find("ArticleIdList") != nil {
				t.Error("ArticleIdList inserted")
			}
		})
	}
}

func TestInsertPublicationType(t *testing.T) {
	doc := parse(t, exportXML)
	pubmed.InsertArticleIDList(doc)

	res := pubmed.InsertPublicationType(doc)
	if res.Status != pubmed.Applied {
		t.Fatalf("result = %+v", res)
	}

	ids := doc.Find("ArticleIdList")
	prev := ids.Parent().Children[ids.Index()-1]
	if prev.Name != "PublicationType" || prev.Text != "Journal Article" {
		t.Errorf("sibling before ArticleIdList = <%s>%s", prev.Name, prev.Text)
	}

	if res := pubmed.InsertPublicationType(doc); res.Status != pubmed.Skipped {
		t.Errorf("second run: Status = %s, want skipped", res.Status)
	}
}

func TestInsertPublicationTypeRequiresBothAnchors(t *testing.T) {
	for _, input := range []string{
		`<Article><AuthorList/></Article>`,
		`<Article><ArticleIdList/></Article>`,
	} {
		doc := parse(t, input)
		if res := pubmed.InsertPublicationType(doc); res.Status != pubmed.Skipped {
			t.Errorf("%s: Status = %s, want skipped", input, res.Status)
		}
		if doc.Find("PublicationType") != nil {
			t.Errorf("%s: PublicationType inserted", input)
		}
	}
}

func TestInsertKeywordsAfterAbstract(t *testing.T) {
	doc := parse(t, exportXML)

	res := pubmed.InsertKeywordsAfterAbstract(doc, []string{"cardiology", "", "surgery"})
	if res.Status != pubmed.Applied || res.Count != 2 {
		t.Fatalf("result = %+v", res)
	}

	abstract := doc.Find("Abstract")
	list := abstract.Parent().Children[abstract.Index()+1]
	if list.Name != "ObjectList" {
		t.Fatalf("sibling after Abstract = %s", list.Name)
	}

	got := string(xmltree.Marshal(list))
	want := `<ObjectList>` +
		`<Object Type="keyword"><Param Name="value">cardiology</Param></Object>` +
		`<Object Type="keyword"><Param Name="value">surgery</Param></Object>` +
		`</ObjectList>`
	if got != want {
		t.Errorf("ObjectList:\ngot  %s\nwant %s", got, want)
	}
}

func TestInsertKeywordsAfterAbstractEmpty(t *testing.T) {
	doc := parse(t, exportXML)
	if res := pubmed.InsertKeywordsAfterAbstract(doc, nil); res.Status != pubmed.Skipped {
		t.Errorf("Status = %s, want skipped", res.Status)
	}
	if doc.Find("ObjectList") != nil {
		t.Error("ObjectList inserted for empty keywords")
	}
}

func TestInsertKeywordsAfterAbstractMissing(t *testing.T) {
	doc := parse(t, `<Article><VernacularTitle>x</VernacularTitle></Article>`)

	res := pubmed.InsertKeywordsAfterAbstract(doc, []string{"a"})
	if res.Status != pubmed.Fatal {
		t.Fatalf("Status = %s, want fatal", res.Status)
	}
	if !errors.Is(res.Err, pubmed.ErrMissingAnchor) {
		t.Errorf("Err = %v, want ErrMissingAnchor", res.Err)
	}
}

func TestRefurbishAbstracts(t *testing.T) {
	doc := parse(t, exportXML)

	res := pubmed.RefurbishAbstracts(doc, "This is the abstract")
	if res.Status != pubmed.Applied {
		t.Fatalf("result = %+v", res)
	}

	if got := doc.Find("Abstract").Text; got != "This is the abstract" {
		t.Errorf("Abstract = %q", got)
	}

	article := doc.Find("Article")
	last := article.Children[len(article.Children)-1]
	if last.Name != "OtherAbstract" || last.Text != "Dit is de samenvatting" {
		t.Errorf("last child = <%s>%s", last.Name, last.Text)
	}
	if v, _ := last.Attr("Language"); v != "NL" {
		t.Errorf("OtherAbstract Language = %q", v)
	}
}

func TestRefurbishAbstractsOwningArticle(t *testing.T) {
	doc := parse(t, `<ArticleSet>
<Article><VernacularTitle>A</VernacularTitle></Article>
<Article><Abstract>tweede</Abstract></Article>
</ArticleSet>`)

	pubmed.RefurbishAbstracts(doc, "second")

	articles := pubmed.Articles(doc)
	if articles[0].Child("OtherAbstract") != nil {
		t.Error("OtherAbstract appended to the wrong Article")
	}
	if articles[1].Child("OtherAbstract") == nil {
		t.Error("OtherAbstract missing from the owning Article")
	}
}

func TestRefurbishAbstractsEdgeCases(t *testing.T) {
	doc := parse(t, `<Article><VernacularTitle>x</VernacularTitle></Article>`)
	res := pubmed.RefurbishAbstracts(doc, "English")
	if res.Status != pubmed.Fatal || !errors.Is(res.Err, pubmed.ErrMissingAnchor) {
		t.Errorf("missing Abstract: result = %+v", res)
	}

	doc = parse(t, `<Article><Abstract>origineel</Abstract></Article>`)
	res = pubmed.RefurbishAbstracts(doc, "")
	if res.Status != pubmed.Skipped {
		t.Errorf("empty English abstract: Status = %s, want skipped", res.Status)
	}
	if doc.Find("Abstract").Text != "origineel" || doc.Find("OtherAbstract") != nil {
		t.Error("empty English abstract should leave the document unchanged")
	}

	doc = parse(t, `<Article><Abstract/></Article>`)
	pubmed.RefurbishAbstracts(doc, "English")
	if doc.Find("OtherAbstract") != nil {
		t.Error("empty original abstract should not produce an OtherAbstract")
	}
}

func TestReorderArticleElements(t *testing.T) {
	doc := parse(t, `<ArticleSet><Article>
<OtherAbstract Language="NL">b</OtherAbstract>
<Abstract>a</Abstract>
<Language>NL</Language>
<ObjectList/>
<VernacularTitle>v</VernacularTitle>
<ArticleTitle>t</ArticleTitle>
<Journal/>
</Article></ArticleSet>`)

	res := pubmed.ReorderArticleElements(doc)
	if res.Status != pubmed.Applied || len(res.Dropped) != 0 {
		t.Fatalf("result = %+v", res)
	}

	want := "Journal,ArticleTitle,VernacularTitle,Language,Abstract,OtherAbstract,ObjectList"
	if got := childNames(doc.Find("Article")); got != want {
		t.Errorf("order:\ngot  %s\nwant %s", got, want)
	}
}

func TestReorderArticleElementsDropsUnknown(t *testing.T) {
	doc := parse(t, `<Article><Abstract>a</Abstract><Unrecognized>x</Unrecognized><Journal/><Keywords/></Article>`)

	res := pubmed.ReorderArticleElements(doc)

	if got := childNames(doc.Root); got != "Journal,Abstract" {
		t.Errorf("children = %s", got)
	}
	if doc.Find("Unrecognized") != nil {
		t.Error("unrecognized element still present")
	}
	if strings.Join(res.Dropped, ",") != "Unrecognized,Keywords" {
		t.Errorf("Dropped = %v", res.Dropped)
	}
}

func TestReorderArticleElementsIdempotent(t *testing.T) {
	doc := parse(t, exportXML)
	pubmed.InsertArticleTitle(doc, "Evaluation of X")
	pubmed.InsertArticleIDList(doc)
	pubmed.InsertPublicationType(doc)
	pubmed.InsertKeywordsAfterAbstract(doc, []string{"k"})
	pubmed.RefurbishAbstracts(doc, "English")

	pubmed.ReorderArticleElements(doc)
	once := string(doc.Bytes())
	second := pubmed.ReorderArticleElements(doc)
	twice := string(doc.Bytes())

	if once != twice {
		t.Errorf("reorder not idempotent:\nonce  %s\ntwice %s", once, twice)
	}
	if len(second.Dropped) != 0 {
		t.Errorf("second pass dropped %v", second.Dropped)
	}
}

func TestReorderArticleElementsStableWithinTag(t *testing.T) {
	doc := parse(t, `<Article><OtherAbstract>1</OtherAbstract><Abstract>a</Abstract><OtherAbstract>2</OtherAbstract></Article>`)
	pubmed.ReorderArticleElements(doc)

	others := doc.Root.ChildrenNamed("OtherAbstract")
	if len(others) != 2 || others[0].Text != "1" || others[1].Text != "2" {
		t.Errorf("OtherAbstract order not preserved: %s", doc.String())
	}
}

func TestReorderCanonicalAllowlist(t *testing.T) {
	for _, name := range pubmed.CanonicalOrder {
		if !pubmed.IsCanonical(name) {
			t.Errorf("%s should be canonical", name)
		}
	}
	if pubmed.IsCanonical("Keywords") {
		t.Error("Keywords should not be canonical")
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := map[string]string{
		"10.1234/abc":                    "10.1234/abc",
		" https://doi.org/10.1234/abc ":  "10.1234/abc",
		"http://doi.org/10.1234/abc":     "10.1234/abc",
		"https://dx.doi.org/10.1234/abc": "10.1234/abc",
		"doi:10.1234/abc":                "10.1234/abc",
		"":                               "",
	}
	for input, want := range tests {
		if got := pubmed.NormalizeDOI(input); got != want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestVernacularTitle(t *testing.T) {
	doc := parse(t, exportXML)
	if got, ok := pubmed.VernacularTitle(doc); !ok || got != "Evaluatie van X" {
		t.Errorf("VernacularTitle = %q, %v", got, ok)
	}
	if _, ok := pubmed.VernacularTitle(parse(t, `<Article/>`)); ok {
		t.Error("expected no VernacularTitle")
	}
}
