package pubmed

import (
	"errors"
	"fmt"
)

// ErrMissingAnchor is returned when an element the DTD requires is absent.
var ErrMissingAnchor = errors.New("missing required anchor")

// Status is the outcome of one editor operation.
type Status int

const (
	// Applied means the document was changed.
	Applied Status = iota
	// Skipped means the anchor was missing or there was nothing to do.
	Skipped
	// Fatal means the document cannot satisfy the DTD.
	Fatal
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Operation names, used in logs, results and metrics labels.
const (
	OpInsertArticleTitle     = "insert_article_title"
	OpReplaceVernacularTitle = "replace_vernacular_title"
	OpReplaceJournalTitle    = "replace_journal_title"
	OpReplaceLanguageTag     = "replace_language_tag"
	OpInsertArticleIDList    = "insert_article_id_list"
	OpInsertPublicationType  = "insert_publication_type"
	OpInsertKeywords         = "insert_keywords_after_abstract"
	OpRefurbishAbstracts     = "refurbish_abstracts"
	OpReorderElements        = "reorder_article_elements"
)

// Result describes what an editor operation did.
type Result struct {
	Op     string
	Status Status
	// Reason explains a skip or failure.
	Reason string
	// Count is the number of nodes written or rewritten.
	Count int
	// Dropped lists element names removed by reordering, one entry per node.
	Dropped []string
	Err     error
}

func applied(op string, count int) Result {
	return Result{Op: op, Status: Applied, Count: count}
}

func skipped(op, reason string) Result {
	return Result{Op: op, Status: Skipped, Reason: reason}
}

func fatal(op, anchor string) Result {
	return Result{
		Op:     op,
		Status: Fatal,
		Reason: "no " + anchor + " element",
		Err:    fmt.Errorf("%s: %w: %s", op, ErrMissingAnchor, anchor),
	}
}
