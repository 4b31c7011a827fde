package record

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion is the interchange format version written by Encode. Files
// without a version tag predate the tag and decode as version 1.
const SchemaVersion = 1

// wireDocument mirrors Document with pointer fields so Decode can tell a
// missing field from a zero value.
type wireDocument struct {
	SchemaVersion *int        `json:"schemaVersion,omitempty"`
	JiraNumber    *string     `json:"jiraNumber"`
	JiraName      *string     `json:"jiraName"`
	RecordType    *string     `json:"recordType"`
	Date          *string     `json:"date"`
	Environment   *string     `json:"environment"`
	Conclusion    *string     `json:"conclusion"`
	AttachedImage *string     `json:"attachedImage,omitempty"`
	Steps         *[]wireStep `json:"steps"`
}

type wireStep struct {
	ID      *string `json:"id"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Encode serializes the document to its canonical interchange form: a JSON
// object carrying the full field set (steps included even when empty) plus
// the schema version tag.
func Encode(doc Document) ([]byte, error) {
	steps := make([]wireStep, len(doc.Steps))
	for i := range doc.Steps {
		s := doc.Steps[i]
		steps[i] = wireStep{ID: &s.ID, Title: &s.Title, Content: &s.Content}
	}
	version := SchemaVersion
	date := doc.Date.String()
	recordType := string(doc.RecordType)
	environment := string(doc.Environment)
	conclusion := string(doc.Conclusion)
	w := wireDocument{
		SchemaVersion: &version,
		JiraNumber:    &doc.JiraNumber,
		JiraName:      &doc.JiraName,
		RecordType:    &recordType,
		Date:          &date,
		Environment:   &environment,
		Conclusion:    &conclusion,
		Steps:         &steps,
	}
	if doc.AttachedImage != "" {
		w.AttachedImage = &doc.AttachedImage
	}
	out, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return out, nil
}

// Decode parses and structurally validates an interchange payload. Every
// violation fails with ErrMalformedDocument and nothing is applied; invalid
// enum values fail rather than coerce. The returned document always
// satisfies Validate, so it can be handed to Store.Replace directly.
func Decode(data []byte) (Document, error) {
	var w wireDocument
	// Unknown fields are tolerated (schema drift); non-objects and type
	// mismatches are not.
	if err := json.Unmarshal(data, &w); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if w.SchemaVersion != nil && *w.SchemaVersion != SchemaVersion {
		return Document{}, fmt.Errorf("%w: unsupported schemaVersion %d", ErrMalformedDocument, *w.SchemaVersion)
	}
	for name, p := range map[string]*string{
		"jiraNumber":  w.JiraNumber,
		"jiraName":    w.JiraName,
		"recordType":  w.RecordType,
		"date":        w.Date,
		"environment": w.Environment,
		"conclusion":  w.Conclusion,
	} {
		if p == nil {
			return Document{}, fmt.Errorf("%w: missing field %q", ErrMalformedDocument, name)
		}
	}
	if w.Steps == nil {
		return Document{}, fmt.Errorf("%w: missing field %q", ErrMalformedDocument, "steps")
	}

	doc := Document{
		JiraNumber:  *w.JiraNumber,
		JiraName:    *w.JiraName,
		RecordType:  RecordType(*w.RecordType),
		Environment: Environment(*w.Environment),
		Conclusion:  Conclusion(*w.Conclusion),
	}
	if !doc.RecordType.Valid() {
		return Document{}, fmt.Errorf("%w: recordType %q", ErrMalformedDocument, *w.RecordType)
	}
	if !doc.Environment.Valid() {
		return Document{}, fmt.Errorf("%w: environment %q", ErrMalformedDocument, *w.Environment)
	}
	if !doc.Conclusion.Valid() {
		return Document{}, fmt.Errorf("%w: conclusion %q", ErrMalformedDocument, *w.Conclusion)
	}
	date, err := ParseDate(*w.Date)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	doc.Date = date
	if w.AttachedImage != nil {
		doc.AttachedImage = *w.AttachedImage
	}

	doc.Steps = make([]Step, len(*w.Steps))
	for i, ws := range *w.Steps {
		if ws.ID == nil || ws.Title == nil || ws.Content == nil {
			return Document{}, fmt.Errorf("%w: step %d is missing id, title or content", ErrMalformedDocument, i)
		}
		doc.Steps[i] = Step{ID: *ws.ID, Title: *ws.Title, Content: *ws.Content}
	}

	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc, nil
}
