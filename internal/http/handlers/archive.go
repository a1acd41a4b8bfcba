package handlers

import (
	"fmt"
	"net/http"
	"path"

	"headshot/pkg/zip"
)

const maxArchiveKeys = 50

// Archive bundles still-live results named by repeated key parameters into
// one ZIP download. Expired or unknown keys are skipped.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "at least one key is required")
		return
	}
	if len(keys) > maxArchiveKeys {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("at most %d keys per archive", maxArchiveKeys))
		return
	}

	assets := make([]zip.Asset, 0, len(keys))
	for _, key := range keys {
		res, data, err := a.Results.Load(r.Context(), key)
		if err != nil {
			a.Logger.Debug().Err(err).Str("key", key).Msg("archive: skip result")
			continue
		}
		assets = append(assets, zip.Asset{Filename: path.Base(res.Key), MIME: res.MIMEType, Data: data})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no results available")
		return
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).Msg("archive: build zip")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=headshots.zip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
