package db

import (
	"context"
	"time"

	"github.com/dasdy/turismo/model"
)

// Storage keeps the per-session preferences and the dataset each session is looking at.
type Storage interface {
	CreateSession(ctx context.Context) (string, error)
	SessionExists(ctx context.Context, session string) (bool, error)
	Preferences(ctx context.Context, session string) (model.Preferences, error)
	SetField(ctx context.Context, session string, field model.PreferenceField, value string) error
	AttachDataset(ctx context.Context, session string, key string) error
	Dataset(ctx context.Context, session string) (string, error)
	DatasetKeys(ctx context.Context) ([]string, error)
	PruneSessions(ctx context.Context, before time.Time) (int64, error)
	Close()
}
