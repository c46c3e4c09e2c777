package routes

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dasdy/turismo/model"
	"github.com/dasdy/turismo/table"
)

const (
	maxUploadSize = 32 << 20
	uploadField   = "file"
)

// UploadHandle loads the posted CSV, memoized by content, and attaches it to the session.
func (s *ServerHandler) UploadHandle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		slog.WarnContext(ctx, "Upload without a file", "error", err)
		http.Error(w, "expected a CSV file in field "+uploadField, http.StatusBadRequest)

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	slog.InfoContext(ctx, "Received upload", "filename", header.Filename, "size", len(data))

	if err := pause(ctx, s.LoadDelay); err != nil {
		slog.DebugContext(ctx, "Upload abandoned", "error", err)

		return
	}

	key, t, err := s.Tables.Load(data)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, table.ErrMalformed) {
			status = http.StatusBadRequest
		}

		slog.WarnContext(ctx, "Could not load upload", "error", err)
		http.Error(w, err.Error(), status)

		return
	}

	if err := s.Storage.AttachDataset(ctx, SessionFrom(ctx), key); err != nil {
		slog.ErrorContext(ctx, "Failed to attach dataset", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	slog.InfoContext(ctx, "Attached dataset", "key", key, "cities", len(t.Rows), "years", len(t.Columns))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PreferencesHandle stores every control value present in the form, last value wins.
func (s *ServerHandler) PreferencesHandle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	session := SessionFrom(ctx)

	for _, field := range model.PreferenceFields {
		values, ok := r.PostForm[string(field)]
		if !ok || len(values) == 0 {
			continue
		}

		// the checkbox posts after its hidden "off" companion
		value := values[len(values)-1]

		if err := s.Storage.SetField(ctx, session, field, value); err != nil {
			slog.ErrorContext(ctx, "Failed to store preference", "field", field, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		slog.DebugContext(ctx, "Stored preference", "field", field, "value", value)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
