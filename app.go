package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/cyrildacostabolant/Cahier-test/editor"
	"github.com/cyrildacostabolant/Cahier-test/history"
	"github.com/cyrildacostabolant/Cahier-test/pdfexport"
	"github.com/cyrildacostabolant/Cahier-test/record"
	"github.com/cyrildacostabolant/Cahier-test/report"
)

// renderSettleDelay gives the editor surface time to deliver its final
// change notification before the export snapshot is taken.
const renderSettleDelay = 150 * time.Millisecond

// Clipboard abstracts the host clipboard so the query copy flow works
// without a running window.
type Clipboard interface {
	SetText(text string) error
}

type wailsClipboard struct {
	app *App
}

func (c *wailsClipboard) SetText(text string) error {
	return runtime.ClipboardSetText(c.app.ctx, text)
}

// App struct
type App struct {
	ctx context.Context

	FileManager     *FileManager
	SettingsManager *SettingsManager
	EventBus        *EventBus

	store     *record.Store
	drafts    *history.Store
	logger    *slog.Logger
	renderer  report.Backend
	fallback  *pdfexport.FallbackExporter
	clipboard Clipboard

	mu       sync.Mutex
	surfaces map[string]*editor.WailsSurface
	adapters map[string]*editor.Adapter

	profiles  []report.Profile
	rendering atomic.Bool
	autosave  func(f func())
}

// NewApp creates a new App application struct
func NewApp() *App {
	app := &App{
		store:    record.NewStore(record.New(time.Now())),
		logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
		renderer: pdfexport.NewChromeRenderer(),
		fallback: pdfexport.NewFallbackExporter(),
		surfaces: make(map[string]*editor.WailsSurface),
		adapters: make(map[string]*editor.Adapter),
	}

	// Initialize modules
	app.EventBus = NewEventBus()
	app.SettingsManager = NewSettingsManager()
	app.FileManager = NewFileManager(app)

	return app
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if err := a.SettingsManager.Load(); err != nil {
		a.logger.Warn("failed to load settings", "error", err)
	}

	a.FileManager.Startup()
	a.clipboard = &wailsClipboard{app: a}

	dbPath := filepath.Join(a.SettingsManager.Dir(), "drafts.db")
	drafts, err := history.Open(dbPath)
	if err != nil {
		a.logger.Warn("draft history unavailable", "path", dbPath, "error", err)
	} else {
		a.drafts = drafts
	}

	profiles, err := report.LoadProfileDir(filepath.Join(a.SettingsManager.Dir(), "profiles"))
	if err != nil {
		a.logger.Warn("failed to load print profiles", "error", err)
	}
	a.profiles = profiles

	delay := time.Duration(a.SettingsManager.Get().Autosave.DelaySeconds) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}
	a.autosave = debounce.New(delay)

	a.store.Watch(a.recordChanged)

	// Structure changes and export outcomes are pushed to the frontend;
	// field and content edits originate there and are not echoed back.
	for _, event := range []string{EventRecordReplaced, EventEditorFailed, EventExportDone, EventExportFailed, EventDraftSaved} {
		a.EventBus.Subscribe(event, func(data interface{}) {
			runtime.EventsEmit(a.ctx, event, data)
		})
	}
	a.EventBus.Subscribe(EventExportDone, func(data interface{}) {
		if ev, ok := data.(ExportEventData); ok {
			a.logger.Info("export complete", "path", ev.Path, "pages", ev.Pages, "fallback", ev.Fallback)
		}
	})

	// Publish startup event
	a.EventBus.Publish("app.startup", nil)
}

// shutdown is called when the app closes
func (a *App) shutdown(ctx context.Context) {
	if a.drafts != nil {
		if err := a.drafts.Close(); err != nil {
			a.logger.Warn("failed to close draft history", "error", err)
		}
	}
}

// recordChanged fans a store mutation out to the event bus and schedules
// the autosave that will capture it.
func (a *App) recordChanged(c record.Change) {
	switch c.Kind {
	case record.ChangeField:
		a.EventBus.Publish(EventRecordField, RecordEventData{Field: c.Field})
	case record.ChangeStepAdded:
		a.EventBus.Publish(EventStepAdded, RecordEventData{StepID: c.StepID})
	case record.ChangeStepRemoved:
		a.EventBus.Publish(EventStepRemoved, RecordEventData{StepID: c.StepID})
	case record.ChangeStepUpdated:
		a.EventBus.Publish(EventStepUpdated, RecordEventData{StepID: c.StepID})
	case record.ChangeReplaced:
		a.EventBus.Publish(EventRecordReplaced, RecordEventData{})
	}
	a.scheduleAutosave()
}

func (a *App) scheduleAutosave() {
	if a.autosave == nil || a.drafts == nil {
		return
	}
	if !a.SettingsManager.Get().Autosave.Enabled {
		return
	}
	a.autosave(a.saveDraft)
}

func (a *App) saveDraft() {
	draft, err := a.drafts.SaveDraft(a.store.Document())
	if err != nil {
		a.logger.Warn("draft autosave failed", "error", err)
		return
	}
	if keep := a.SettingsManager.Get().Autosave.KeepDrafts; keep > 0 {
		if err := a.drafts.Prune(keep); err != nil {
			a.logger.Warn("draft prune failed", "error", err)
		}
	}
	a.EventBus.Publish(EventDraftSaved, DraftEventData{ID: draft.ID, JiraNumber: draft.JiraNumber})
}

// NewRecord discards the session and starts a blank record dated today
func (a *App) NewRecord() record.Document {
	// A freshly built record always satisfies the document invariants.
	_ = a.store.Replace(record.New(time.Now()))
	a.pruneAdapters()
	return a.store.Document()
}

// GetRecord returns a snapshot of the current record
func (a *App) GetRecord() record.Document {
	return a.store.Document()
}

// SetField updates one header field of the record
func (a *App) SetField(key string, value string) error {
	return a.store.SetField(key, value)
}

// AddStep appends a new step and returns it
func (a *App) AddStep() record.Step {
	return a.store.AddStep()
}

// RemoveStep deletes a step and releases its editor binding
func (a *App) RemoveStep(stepID string) {
	a.teardownStep(stepID)
	a.store.RemoveStep(stepID)
}

// UpdateStepTitle renames a step
func (a *App) UpdateStepTitle(stepID string, title string) error {
	return a.store.UpdateStep(stepID, record.StepPatch{Title: &title})
}

// BindStep attaches the rich-text surface for one step. The frontend calls
// this when the step's editor container is in the DOM, and again to retry
// after a failed mount.
func (a *App) BindStep(stepID string) error {
	a.teardownStep(stepID)

	surface := editor.NewWailsSurface(a.ctx, stepID)
	adapter, err := editor.Bind(a.store, stepID, surface)
	if err != nil {
		a.logger.Warn("editor bind failed", "step", stepID, "error", err)
		a.EventBus.Publish(EventEditorFailed, EditorEventData{StepID: stepID, Reason: err.Error()})
		return err
	}

	a.mu.Lock()
	a.surfaces[stepID] = surface
	a.adapters[stepID] = adapter
	a.mu.Unlock()

	a.EventBus.Publish(EventEditorBound, EditorEventData{StepID: stepID})
	return nil
}

// EditorReady signals that the frontend widget for a step finished loading
func (a *App) EditorReady(stepID string) {
	if s := a.surface(stepID); s != nil {
		s.Ready()
	}
}

// EditorChanged carries one buffer snapshot from the frontend widget
func (a *App) EditorChanged(stepID string, content string) {
	if s := a.surface(stepID); s != nil {
		s.Changed(content)
	}
}

// EditorFailed reports that the widget could not be created. The binding
// is released and the step keeps its content until a retry succeeds.
func (a *App) EditorFailed(stepID string, reason string) {
	if s := a.surface(stepID); s != nil {
		s.Fail()
	}
	a.teardownStep(stepID)
	a.logger.Warn("editor surface failed", "step", stepID, "reason", reason)
	a.EventBus.Publish(EventEditorFailed, EditorEventData{StepID: stepID, Reason: reason})
}

func (a *App) surface(stepID string) *editor.WailsSurface {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.surfaces[stepID]
}

// teardownStep releases the binding of one step if it has one.
func (a *App) teardownStep(stepID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ad, ok := a.adapters[stepID]; ok {
		ad.Teardown()
		delete(a.adapters, stepID)
		delete(a.surfaces, stepID)
	}
}

// pruneAdapters releases bindings whose step no longer exists, after a
// wholesale document replacement.
func (a *App) pruneAdapters() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, ad := range a.adapters {
		if _, ok := a.store.Step(id); !ok {
			ad.Teardown()
			delete(a.adapters, id)
			delete(a.surfaces, id)
		}
	}
}

// AttachImage stores the screenshot as a data URI on the record
func (a *App) AttachImage(dataURI string) error {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return fmt.Errorf("%w: attachedImage payload is not an image data URI", record.ErrInvalidField)
	}
	return a.store.SetField("attachedImage", dataURI)
}

// ClearImage removes the attached screenshot
func (a *App) ClearImage() error {
	return a.store.SetField("attachedImage", "")
}

// PreviewHTML renders the current record as the on-screen preview document
func (a *App) PreviewHTML() (string, error) {
	if !a.rendering.CompareAndSwap(false, true) {
		return "", report.ErrRenderBusy
	}
	defer a.rendering.Store(false)

	artifact, err := report.Build(a.store.Document())
	if err != nil {
		return "", err
	}
	return report.Compose(artifact, report.FramePreview), nil
}

// ExportResult describes a finished PDF export. Pages is omitted when
// post-processing could not determine a count.
type ExportResult struct {
	Path     string `json:"path"`
	Pages    int    `json:"pages,omitempty"`
	Fallback bool   `json:"fallback"`
}

// ExportPDF renders the record to a PDF at a user-chosen path. Only one
// render runs at a time; a trigger while one is outstanding fails with
// ErrRenderBusy and changes nothing.
func (a *App) ExportPDF() (*ExportResult, error) {
	if !a.rendering.CompareAndSwap(false, true) {
		return nil, report.ErrRenderBusy
	}
	defer a.rendering.Store(false)

	time.Sleep(renderSettleDelay)
	doc := a.store.Document()

	artifact, err := report.Build(doc)
	if err != nil {
		return nil, err
	}
	html := report.Compose(artifact, report.FrameExport)

	filePath, err := a.FileManager.SavePDFDialog(ExportBaseName(doc.JiraNumber) + ".pdf")
	if err != nil {
		return nil, err
	}
	if filePath == "" {
		return nil, nil // User cancelled
	}

	settings := a.SettingsManager.Get()
	profile := report.SelectProfile(a.profiles, settings.Export.Profile)

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	usedFallback := false
	data, err := a.renderer.Render(ctx, html, profile)
	switch {
	case err == nil:
		if err := os.WriteFile(filePath, data, 0644); err != nil {
			wrapped := fmt.Errorf("failed to write PDF: %w", err)
			a.EventBus.Publish(EventExportFailed, ExportEventData{Path: filePath, Error: wrapped.Error()})
			return nil, wrapped
		}
	case settings.Export.FallbackEnabled:
		a.logger.Warn("print backend failed, using text fallback", "error", err)
		if err := a.fallback.Export(doc, filePath); err != nil {
			a.EventBus.Publish(EventExportFailed, ExportEventData{Path: filePath, Error: err.Error()})
			return nil, err
		}
		usedFallback = true
	default:
		a.EventBus.Publish(EventExportFailed, ExportEventData{Path: filePath, Error: err.Error()})
		return nil, err
	}

	pages, err := pdfexport.Postprocess(filePath)
	if err != nil {
		a.logger.Warn("pdf post-processing failed", "path", filePath, "error", err)
	}

	result := &ExportResult{Path: filePath, Pages: pages, Fallback: usedFallback}
	a.EventBus.Publish(EventExportDone, ExportEventData{Path: filePath, Pages: pages, Fallback: usedFallback})

	if settings.Export.OpenAfterExport && a.ctx != nil {
		runtime.BrowserOpenURL(a.ctx, "file://"+filePath)
	}

	return result, nil
}

// CopyQuery puts the Jira tracking query on the host clipboard and returns
// the copied text
func (a *App) CopyQuery() (string, error) {
	query := report.TrackingQuery(a.store.Document().JiraNumber)
	if a.clipboard == nil {
		return "", fmt.Errorf("clipboard unavailable")
	}
	if err := a.clipboard.SetText(query); err != nil {
		return "", fmt.Errorf("failed to copy query: %w", err)
	}
	return query, nil
}

// ImportResult contains the restored document and its source path
type ImportResult struct {
	Document record.Document `json:"document"`
	Path     string          `json:"path"`
}

// ImportRecord shows the open dialog and replaces the session with the
// selected record. Decode or validation failures leave the session as it
// was.
func (a *App) ImportRecord() (*ImportResult, error) {
	filePath, err := a.FileManager.OpenRecordDialog()
	if err != nil {
		return nil, err
	}
	if filePath == "" {
		return nil, nil // User cancelled
	}

	return a.ImportRecordByPath(filePath)
}

// ImportRecordByPath opens a specific record file (recent list entries)
func (a *App) ImportRecordByPath(filePath string) (*ImportResult, error) {
	data, err := a.FileManager.ReadRecord(filePath)
	if err != nil {
		return nil, err
	}

	doc, err := record.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := a.store.Replace(doc); err != nil {
		return nil, err
	}
	a.pruneAdapters()
	a.FileManager.addToRecentRecords(filePath)

	return &ImportResult{Document: a.store.Document(), Path: filePath}, nil
}

// ExportRecord encodes the session and writes it where the user chooses.
// The returned path is empty when the dialog was cancelled.
func (a *App) ExportRecord() (string, error) {
	doc := a.store.Document()
	data, err := record.Encode(doc)
	if err != nil {
		return "", err
	}

	filePath, err := a.FileManager.SaveRecordDialog(ExportBaseName(doc.JiraNumber) + ".json")
	if err != nil {
		return "", err
	}
	if filePath == "" {
		return "", nil // User cancelled
	}

	if err := a.FileManager.WriteRecord(filePath, data); err != nil {
		return "", err
	}
	a.FileManager.addToRecentRecords(filePath)

	return filePath, nil
}

// ListDrafts returns recent autosaved drafts, newest first
func (a *App) ListDrafts() ([]history.Draft, error) {
	if a.drafts == nil {
		return nil, nil
	}
	return a.drafts.ListDrafts(20)
}

// RestoreDraft replaces the session with an autosaved draft
func (a *App) RestoreDraft(id int64) (record.Document, error) {
	if a.drafts == nil {
		return record.Document{}, history.ErrDraftNotFound
	}
	draft, err := a.drafts.GetDraft(id)
	if err != nil {
		return record.Document{}, err
	}

	doc, err := record.Decode(draft.Payload)
	if err != nil {
		return record.Document{}, err
	}
	if err := a.store.Replace(doc); err != nil {
		return record.Document{}, err
	}
	a.pruneAdapters()

	return a.store.Document(), nil
}

// GetSettings returns the current application settings
func (a *App) GetSettings() *Settings {
	return a.SettingsManager.Get()
}

// UpdateSettings updates the application settings
func (a *App) UpdateSettings(settings *Settings) error {
	return a.SettingsManager.Update(settings)
}

// PrintProfiles lists the selectable print profiles: the built-in default
// plus any defined in the profiles directory
func (a *App) PrintProfiles() []report.Profile {
	profiles := []report.Profile{report.DefaultProfile()}
	return append(profiles, a.profiles...)
}

// GetRecentRecords returns the list of recently opened record files
func (a *App) GetRecentRecords() []string {
	return a.FileManager.GetRecentRecords()
}

// ClearRecentRecords clears the recent records list
func (a *App) ClearRecentRecords() {
	a.FileManager.ClearRecentRecords()
}
