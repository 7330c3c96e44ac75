package domain

import "strings"

// Domain contains core catalog models shared by the client, harvester and CLI.

// Document is a decoded JSON object returned by the catalog (collection
// metadata, tile descriptors, feature collections).
type Document map[string]any

// Record is an opaque catalog item. It is passed through unmodified; the
// accessors below only read well-known OGC API Records fields.
type Record map[string]any

// Link is an OGC API navigation link.
type Link struct {
	Href     string `json:"href" yaml:"href"`
	Rel      string `json:"rel,omitempty" yaml:"rel,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	HrefLang string `json:"hreflang,omitempty" yaml:"hreflang,omitempty"`
}

// ID returns the record identifier, or "" when absent or not a string.
func (r Record) ID() string {
	if id, ok := r["id"].(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}

// Title returns properties.title.
func (r Record) Title() string {
	return r.property("title")
}

// Description returns properties.description as stored (it may contain markup).
func (r Record) Description() string {
	return r.property("description")
}

// Properties returns the record's properties object, or nil.
func (r Record) Properties() map[string]any {
	props, _ := r["properties"].(map[string]any)
	return props
}

func (r Record) property(key string) string {
	props := r.Properties()
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RecordSummary is the flattened view of a record published by the harvester.
type RecordSummary struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Updated     string   `json:"updated,omitempty" yaml:"updated,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// Keywords returns properties.keywords as strings, skipping blanks and non-strings.
func (r Record) Keywords() []string {
	raw, _ := r.Properties()["keywords"].([]any)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// Updated returns properties.updated (falling back to properties.created).
func (r Record) Updated() string {
	if v := r.property("updated"); v != "" {
		return v
	}
	return r.property("created")
}

// SelfURL returns the href of the record's rel=self link, or "".
func (r Record) SelfURL() string {
	links, _ := r["links"].([]any)
	for _, l := range links {
		m, ok := l.(map[string]any)
		if !ok {
			continue
		}
		if rel, _ := m["rel"].(string); strings.EqualFold(rel, "self") {
			href, _ := m["href"].(string)
			return strings.TrimSpace(href)
		}
	}
	return ""
}
