package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// FileManager handles record files and export destinations
type FileManager struct {
	app              *App
	recentRecords    []string
	maxRecentRecords int
	settingsDir      string
}

// NewFileManager creates a new FileManager instance
func NewFileManager(app *App) *FileManager {
	return &FileManager{
		app:              app,
		recentRecords:    make([]string, 0),
		maxRecentRecords: 10,
		settingsDir:      getSettingsDir(),
	}
}

// getSettingsDir returns the directory for storing settings
func getSettingsDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.cahier-test"
	}
	return filepath.Join(homeDir, ".cahier-test")
}

// ensureSettingsDir creates the settings directory if it doesn't exist
func (fm *FileManager) ensureSettingsDir() error {
	return os.MkdirAll(fm.settingsDir, 0755)
}

// ReadRecord reads a saved record file. The caller decides whether the
// file enters the recent list; a file that fails to decode should not.
func (fm *FileManager) ReadRecord(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return data, nil
}

// WriteRecord saves an encoded record to a file
func (fm *FileManager) WriteRecord(filePath string, data []byte) error {
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// OpenRecordDialog shows a file open dialog and returns the selected path
func (fm *FileManager) OpenRecordDialog() (string, error) {
	selection, err := runtime.OpenFileDialog(fm.app.ctx, runtime.OpenDialogOptions{
		Title: "Ouvrir un cahier",
		Filters: []runtime.FileFilter{
			{DisplayName: "Cahier de test (*.json)", Pattern: "*.json"},
			{DisplayName: "Tous les fichiers (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return "", err
	}
	return selection, nil
}

// SaveRecordDialog shows a save dialog for the record file
func (fm *FileManager) SaveRecordDialog(defaultName string) (string, error) {
	selection, err := runtime.SaveFileDialog(fm.app.ctx, runtime.SaveDialogOptions{
		Title:           "Enregistrer le cahier",
		DefaultFilename: defaultName,
		Filters: []runtime.FileFilter{
			{DisplayName: "Cahier de test (*.json)", Pattern: "*.json"},
			{DisplayName: "Tous les fichiers (*.*)", Pattern: "*.*"},
		},
	})
	if err != nil {
		return "", err
	}
	return selection, nil
}

// SavePDFDialog shows a save dialog for the exported document
func (fm *FileManager) SavePDFDialog(defaultName string) (string, error) {
	selection, err := runtime.SaveFileDialog(fm.app.ctx, runtime.SaveDialogOptions{
		Title:           "Exporter le PDF",
		DefaultFilename: defaultName,
		Filters: []runtime.FileFilter{
			{DisplayName: "Document PDF (*.pdf)", Pattern: "*.pdf"},
		},
	})
	if err != nil {
		return "", err
	}
	return selection, nil
}

// ExportBaseName derives a file name from the Jira reference. Characters
// outside [a-zA-Z0-9] split the reference into runs joined by dashes.
func ExportBaseName(jiraNumber string) string {
	var runs []string
	var current strings.Builder
	for _, r := range strings.ToLower(jiraNumber) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			runs = append(runs, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		runs = append(runs, current.String())
	}

	if len(runs) == 0 {
		return "cahier-sans-numero"
	}
	return "cahier-" + strings.Join(runs, "-")
}

// addToRecentRecords adds a record file to the recent list
func (fm *FileManager) addToRecentRecords(filePath string) {
	// Remove if already exists
	for i, path := range fm.recentRecords {
		if path == filePath {
			fm.recentRecords = append(fm.recentRecords[:i], fm.recentRecords[i+1:]...)
			break
		}
	}

	// Add to front
	fm.recentRecords = append([]string{filePath}, fm.recentRecords...)

	// Trim to max
	if len(fm.recentRecords) > fm.maxRecentRecords {
		fm.recentRecords = fm.recentRecords[:fm.maxRecentRecords]
	}

	// Save to disk
	fm.saveRecentRecords()
}

// GetRecentRecords returns the list of recently opened record files
func (fm *FileManager) GetRecentRecords() []string {
	return fm.recentRecords
}

// loadRecentRecords loads the recent list from disk
func (fm *FileManager) loadRecentRecords() error {
	fm.ensureSettingsDir()

	data, err := os.ReadFile(filepath.Join(fm.settingsDir, "recent_records.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No recent records yet
		}
		return err
	}

	return json.Unmarshal(data, &fm.recentRecords)
}

// saveRecentRecords saves the recent list to disk
func (fm *FileManager) saveRecentRecords() error {
	fm.ensureSettingsDir()

	data, err := json.Marshal(fm.recentRecords)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(fm.settingsDir, "recent_records.json"), data, 0644)
}

// ClearRecentRecords clears the recent list
func (fm *FileManager) ClearRecentRecords() {
	fm.recentRecords = make([]string, 0)
	fm.saveRecentRecords()
}

// Startup initializes the file manager
func (fm *FileManager) Startup() {
	fm.loadRecentRecords()
}
