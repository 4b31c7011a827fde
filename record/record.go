// Package record holds the test record document model and the store that
// owns the canonical document value for a session.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordType selects the kind of record being authored.
type RecordType string

const (
	TypeTest         RecordType = "test"
	TypeVerification RecordType = "verification"
)

// Valid reports whether t is one of the two known record types.
func (t RecordType) Valid() bool {
	return t == TypeTest || t == TypeVerification
}

// Label returns the display label used on the cover page.
func (t RecordType) Label() string {
	if t == TypeVerification {
		return "Cahier de vérification"
	}
	return "Cahier de test"
}

// Environment is the environment the test was executed against.
type Environment string

const (
	EnvQualification Environment = "qualification"
	EnvProduction    Environment = "production"
)

func (e Environment) Valid() bool {
	return e == EnvQualification || e == EnvProduction
}

// Label returns the display label used in the rendered report.
func (e Environment) Label() string {
	if e == EnvProduction {
		return "Production"
	}
	return "Qualification"
}

// Conclusion is the overall outcome of the record.
type Conclusion string

const (
	ConclusionPass Conclusion = "pass"
	ConclusionFail Conclusion = "fail"
)

func (c Conclusion) Valid() bool {
	return c == ConclusionPass || c == ConclusionFail
}

// Label returns the literal outcome label rendered in the conclusion banner.
func (c Conclusion) Label() string {
	if c == ConclusionFail {
		return "Fail"
	}
	return "Pass"
}

// Date is a calendar date (no time-of-day). It marshals as "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// Display formats the date for the rendered report (fixed French locale).
func (d Date) Display() string { return d.Format("02/01/2006") }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Step is one test step. Content is a trusted rich-text HTML fragment: it is
// only ever produced by the bound editing surface or by a previously
// serialized record, never typed in raw. The empty string is the valid
// "untouched" state.
type Step struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Document is a complete test record. Step order is the display and
// rendering order; it only changes on explicit add/remove.
type Document struct {
	JiraNumber    string      `json:"jiraNumber"`
	JiraName      string      `json:"jiraName"`
	RecordType    RecordType  `json:"recordType"`
	Date          Date        `json:"date"`
	Environment   Environment `json:"environment"`
	Conclusion    Conclusion  `json:"conclusion"`
	AttachedImage string      `json:"attachedImage,omitempty"`
	Steps         []Step      `json:"steps"`
}

// New returns a fresh document dated to the creation day, with one default
// step ready for editing.
func New(now time.Time) Document {
	return Document{
		RecordType:  TypeTest,
		Date:        DateOf(now),
		Environment: EnvQualification,
		Conclusion:  ConclusionPass,
		Steps:       []Step{NewStep(1)},
	}
}

// NewStep creates a step with a fresh opaque id and the default title for
// the given 1-based position. The id is generated once and never recomputed
// from content.
func NewStep(position int) Step {
	return Step{
		ID:    uuid.NewString(),
		Title: StepTitle(position),
	}
}

// StepTitle is the auto-generated title for a step added at the given
// 1-based position. Titles become user data afterwards and are never
// renumbered.
func StepTitle(position int) string {
	return fmt.Sprintf("Étape %d", position)
}

// Clone returns a deep copy. Steps are copied so the caller can never alias
// the canonical slice.
func (d Document) Clone() Document {
	out := d
	out.Steps = make([]Step, len(d.Steps))
	copy(out.Steps, d.Steps)
	return out
}

// StepIndex returns the position of the step with that id, or -1.
func (d Document) StepIndex(id string) int {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks the document invariants: enum fields hold one of their two
// literals and step ids are non-blank and unique. A document failing this is
// never installed as the canonical value.
func (d Document) Validate() error {
	if !d.RecordType.Valid() {
		return fmt.Errorf("%w: recordType %q", ErrInvalidDocument, d.RecordType)
	}
	if !d.Environment.Valid() {
		return fmt.Errorf("%w: environment %q", ErrInvalidDocument, d.Environment)
	}
	if !d.Conclusion.Valid() {
		return fmt.Errorf("%w: conclusion %q", ErrInvalidDocument, d.Conclusion)
	}
	seen := make(map[string]struct{}, len(d.Steps))
	for i, s := range d.Steps {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: step %d has a blank id", ErrInvalidDocument, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidDocument, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}
