// Package story reads and writes the on-disk story layout: a structure file
// with tokenized content and one translation file per language.
package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tells whether a document is divided into chapters or pages.
type Kind string

const (
	KindChapter Kind = "chapter"
	KindPage    Kind = "page"
)

// Field returns the JSON field holding the units.
func (k Kind) Field() string {
	if k == KindPage {
		return "pages"
	}
	return "chapters"
}

var (
	// ErrNoUnits is returned for a document without chapters or pages.
	ErrNoUnits = errors.New("document has neither chapters nor pages")
	// ErrMixedUnits is returned for a document with both chapters and pages.
	ErrMixedUnits = errors.New("document has both chapters and pages")
)

type fields = orderedmap.OrderedMap[string, json.RawMessage]

// Sentences is a translation map keyed by source sentence, in file order.
type Sentences = orderedmap.OrderedMap[string, string]

// Unit is one chapter or page. Fields the tool does not know about are kept
// and written back unchanged.
type Unit struct {
	Kind        Kind
	ID          string
	Title       string
	Description string
	Content     string
	Sentences   *Sentences

	raw *fields
}

// Document is a structure or language file.
type Document struct {
	Kind Kind
	// Language is the optional "language" field of a structure file: the
	// language the chapter content is written in.
	Language    string
	Title       string
	Description string
	Units       []*Unit

	raw *fields
}

// ParseDocument decodes a document and decides once whether it holds
// chapters or pages.
func ParseDocument(data []byte) (*Document, error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	doc := &Document{raw: raw}
	chapters, hasChapters := raw.Get(KindChapter.Field())
	pages, hasPages := raw.Get(KindPage.Field())
	var units json.RawMessage
	switch {
	case hasChapters && hasPages:
		return nil, ErrMixedUnits
	case hasChapters:
		doc.Kind, units = KindChapter, chapters
	case hasPages:
		doc.Kind, units = KindPage, pages
	default:
		return nil, ErrNoUnits
	}

	for key, dst := range map[string]*string{"language": &doc.Language, "title": &doc.Title, "description": &doc.Description} {
		if err := decodeString(raw, key, dst); err != nil {
			return nil, err
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(units, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", doc.Kind.Field(), err)
	}
	for i, item := range items {
		u, err := parseUnit(item, doc.Kind)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s %d: %w", doc.Kind, i+1, err)
		}
		doc.Units = append(doc.Units, u)
	}
	return doc, nil
}

func parseUnit(data []byte, kind Kind) (*Unit, error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, err
	}
	u := &Unit{Kind: kind, raw: raw}

	if id, ok := raw.Get("id"); ok {
		u.ID = decodeID(id)
	}
	for key, dst := range map[string]*string{"title": &u.Title, "description": &u.Description, "content": &u.Content} {
		if err := decodeString(raw, key, dst); err != nil {
			return nil, err
		}
	}
	if s, ok := raw.Get("sentences"); ok && !isNull(s) {
		u.Sentences = orderedmap.New[string, string]()
		if err := json.Unmarshal(s, u.Sentences); err != nil {
			return nil, fmt.Errorf("failed to parse sentences: %w", err)
		}
	}
	return u, nil
}

// decodeID accepts both string and numeric ids.
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func decodeString(raw *fields, key string, dst *string) error {
	v, ok := raw.Get(key)
	if !ok || isNull(v) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// MarshalJSON writes the document back with its original field order.
func (d *Document) MarshalJSON() ([]byte, error) {
	raw := cloneFields(d.raw)
	if err := setString(raw, "language", d.Language); err != nil {
		return nil, err
	}
	if err := setString(raw, "title", d.Title); err != nil {
		return nil, err
	}
	if err := setString(raw, "description", d.Description); err != nil {
		return nil, err
	}
	list := d.Units
	if list == nil {
		list = []*Unit{}
	}
	units, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	raw.Set(d.kind().Field(), units)
	return json.Marshal(raw)
}

func (d *Document) kind() Kind {
	if d.Kind == "" {
		return KindChapter
	}
	return d.Kind
}

// MarshalJSON writes the unit back with its original field order. Content
// and sentences are only written when present.
func (u *Unit) MarshalJSON() ([]byte, error) {
	raw := cloneFields(u.raw)
	if u.raw == nil {
		if u.ID != "" {
			id, _ := json.Marshal(u.ID)
			raw.Set("id", id)
		}
	}
	if err := setString(raw, "title", u.Title); err != nil {
		return nil, err
	}
	if err := setString(raw, "description", u.Description); err != nil {
		return nil, err
	}
	if _, ok := raw.Get("content"); ok || u.Content != "" {
		if err := setString(raw, "content", u.Content); err != nil {
			return nil, err
		}
	}
	if u.Sentences != nil {
		s, err := json.Marshal(u.Sentences)
		if err != nil {
			return nil, err
		}
		raw.Set("sentences", s)
	}
	return json.Marshal(raw)
}

func cloneFields(raw *fields) *fields {
	out := orderedmap.New[string, json.RawMessage]()
	if raw == nil {
		return out
	}
	for p := raw.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value)
	}
	return out
}

func setString(raw *fields, key, value string) error {
	if _, ok := raw.Get(key); !ok && value == "" {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	raw.Set(key, b)
	return nil
}

// Encode renders a document as indented JSON with a trailing newline.
func Encode(d *Document) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// FindUnit returns the unit with the given id, or the unit at index when no
// unit carries that id.
func (d *Document) FindUnit(id string, index int) *Unit {
	if id != "" {
		for _, u := range d.Units {
			if u.ID == id {
				return u
			}
		}
	}
	if index >= 0 && index < len(d.Units) {
		return d.Units[index]
	}
	return nil
}

// SourceLanguage returns the document's language, or fallback when the file
// does not name one.
func (d *Document) SourceLanguage(fallback string) string {
	if d.Language != "" {
		return d.Language
	}
	return fallback
}

// Clone returns a deep copy so a caller can modify units without touching d.
func (d *Document) Clone() (*Document, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	return ParseDocument(b)
}
