package publishers

import (
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/Adda-Baaj/ec-catalog/internal/domain"
	"github.com/Adda-Baaj/ec-catalog/pkg/sources"
)

// Message attribute keys shared by every sink.
const (
	AttrSourceID    = "source_id"
	AttrCollection  = "collection"
	AttrRecordID    = "record_id"
	AttrFingerprint = "fingerprint"
)

// Event announces a new or changed catalog record. Fingerprint identifies the
// record version, so redelivering the same version yields the same
// IdempotencyKey.
type Event struct {
	SourceID    string               `json:"source_id"`
	SourceName  string               `json:"source_name"`
	Collection  string               `json:"collection"`
	Fingerprint string               `json:"fingerprint"`
	Record      domain.RecordSummary `json:"record"`
	Raw         domain.Record        `json:"raw,omitempty"`
	HarvestedAt time.Time            `json:"harvested_at"`
}

// NewEvent builds the event for one harvested record version.
func NewEvent(src sources.Source, fingerprint string, summary domain.RecordSummary, raw domain.Record) Event {
	return Event{
		SourceID:    src.ID,
		SourceName:  src.Name,
		Collection:  src.Collection,
		Fingerprint: fingerprint,
		Record:      summary,
		Raw:         raw,
		HarvestedAt: time.Now().UTC(),
	}
}

// IdempotencyKey is the hex sha1 of collection, record id and fingerprint.
func (e Event) IdempotencyKey() string {
	h := sha1.New()
	for _, part := range []string{e.Collection, e.Record.ID, e.Fingerprint} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GroupKey orders deliveries per collection on FIFO queues and ordered topics.
func (e Event) GroupKey() string {
	switch {
	case e.Collection != "":
		return e.Collection
	case e.SourceID != "":
		return e.SourceID
	default:
		return "catalog"
	}
}

// Attributes returns the routing attributes of the event. Empty values are
// left out since SQS and SNS reject them.
func (e Event) Attributes() map[string]string {
	attrs := make(map[string]string, 4)
	for key, val := range map[string]string{
		AttrSourceID:    e.SourceID,
		AttrCollection:  e.Collection,
		AttrRecordID:    e.Record.ID,
		AttrFingerprint: e.Fingerprint,
	} {
		if val != "" {
			attrs[key] = val
		}
	}
	return attrs
}
