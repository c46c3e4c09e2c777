package routes_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dasdy/turismo/db"
	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
	"github.com/dasdy/turismo/web/routes"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Cidades,2019,2020,2021
Rio,"10,5",-,"12,25"
Salvador,"3,1","2,0","4"
Manaus,-,-,-
`

// StorageMock is a simple manual mock implementation of the Storage interface that keeps
// everything in maps. Sessions listed in Idle are the ones the next prune removes.
type StorageMock struct {
	Prefs       map[string]model.Preferences
	Datasets    map[string]string
	ReturnError error
	Idle        []string
	SetCalls    int
	PruneCalls  int
	next        int
}

func NewStorageMock() *StorageMock {
	return &StorageMock{
		Prefs:    map[string]model.Preferences{},
		Datasets: map[string]string{},
	}
}

func (m *StorageMock) CreateSession(_ context.Context) (string, error) {
	if m.ReturnError != nil {
		return "", m.ReturnError
	}

	m.next++
	session := fmt.Sprintf("session-%d", m.next)
	m.Prefs[session] = model.DefaultPreferences()

	return session, nil
}

func (m *StorageMock) SessionExists(_ context.Context, session string) (bool, error) {
	_, ok := m.Prefs[session]

	return ok, m.ReturnError
}

func (m *StorageMock) Preferences(_ context.Context, session string) (model.Preferences, error) {
	if m.ReturnError != nil {
		return model.Preferences{}, m.ReturnError
	}

	prefs, ok := m.Prefs[session]
	if !ok {
		return model.DefaultPreferences(), nil
	}

	return prefs, nil
}

func (m *StorageMock) SetField(_ context.Context, session string, field model.PreferenceField, value string) error {
	m.SetCalls++

	if m.ReturnError != nil {
		return m.ReturnError
	}

	prefs, ok := m.Prefs[session]
	if !ok {
		prefs = model.DefaultPreferences()
	}

	switch field {
	case model.FieldCity:
		prefs.City = optional(value)
	case model.FieldYear:
		prefs.Year = optional(value)
	case model.FieldShowData:
		prefs.ShowData = db.ParseFlag(value)
	case model.FieldFontColor:
		prefs.FontColor = value
	case model.FieldPanelColor:
		prefs.PanelColor = value
	default:
		return db.ErrUnknownField
	}

	m.Prefs[session] = prefs

	return nil
}

func (m *StorageMock) AttachDataset(_ context.Context, session string, key string) error {
	if m.ReturnError != nil {
		return m.ReturnError
	}

	m.Datasets[session] = key

	return nil
}

func (m *StorageMock) Dataset(_ context.Context, session string) (string, error) {
	return m.Datasets[session], m.ReturnError
}

func (m *StorageMock) DatasetKeys(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.Datasets))
	for _, key := range m.Datasets {
		keys = append(keys, key)
	}

	return keys, m.ReturnError
}

func (m *StorageMock) PruneSessions(_ context.Context, _ time.Time) (int64, error) {
	m.PruneCalls++

	if m.ReturnError != nil {
		return 0, m.ReturnError
	}

	for _, session := range m.Idle {
		delete(m.Prefs, session)
		delete(m.Datasets, session)
	}

	n := int64(len(m.Idle))
	m.Idle = nil

	return n, nil
}

func (m *StorageMock) Close() {}

func optional(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}

// setupHandler returns a handler whose session "s1" already looks at the sample table.
func setupHandler(t *testing.T) (*routes.ServerHandler, *StorageMock) {
	t.Helper()

	storage := NewStorageMock()
	tables := table.NewCache()

	key, _, err := tables.Load([]byte(sampleCSV))
	require.NoError(t, err)

	storage.Prefs["s1"] = model.DefaultPreferences()
	storage.Datasets["s1"] = key

	return &routes.ServerHandler{Storage: storage, Tables: tables}, storage
}

func sampleTable(t *testing.T) *model.Table {
	t.Helper()

	tbl, err := table.Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	return tbl
}

func ptr(s string) *string {
	return &s
}
