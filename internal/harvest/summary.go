package harvest

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic fingerprint
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
)

const maxDescriptionRunes = 2000

// Summarize flattens a record into the published summary. Descriptions in
// catalogs frequently carry HTML; it is reduced to plain text.
func Summarize(rec domain.Record) domain.RecordSummary {
	title := rec.Title()
	if title == "" {
		title = rec.ID()
	}
	return domain.RecordSummary{
		ID:          rec.ID(),
		Title:       title,
		Description: truncateRunes(plainText(rec.Description()), maxDescriptionRunes),
		Keywords:    rec.Keywords(),
		Updated:     rec.Updated(),
		URL:         rec.SelfURL(),
	}
}

// plainText strips markup and collapses whitespace. Input without markup is
// returned trimmed.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// fingerprint identifies a record version: the updated timestamp when the
// catalog provides one, otherwise a hash of the record body.
func fingerprint(rec domain.Record) string {
	if updated := rec.Updated(); updated != "" {
		return updated
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return ""
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}
