package handlers

import (
	"errors"
	"net/http"
	"time"

	"headshot/internal/domain"
)

// GenerateStream validates the upload and streams per-style events as SSE.
// Validation failures are answered with a JSON 400 before any event.
func (a *App) GenerateStream(w http.ResponseWriter, r *http.Request) {
	req, session, err := a.parseGeneration(w, r)
	if err != nil {
		a.formError(w, err)
		return
	}
	defer a.cleanup(session, req.ID)

	log := a.Logger.With().Str("request_id", req.ID).Logger()
	log.Info().
		Int("images", len(req.Images)).
		Strs("styles", req.StyleIDs).
		Str("face_mode", string(req.FaceMode)).
		Bool("reference", req.Reference != nil).
		Msg("generation started")

	stream := openEventStream(w, a.KeepAlive)
	defer stream.Close()

	err = a.Runner.Run(r.Context(), req, stream.Send)
	switch {
	case errors.Is(err, domain.ErrStreamClosed):
		log.Info().Msg("client disconnected before completion")
	case err != nil:
		log.Error().Err(err).Msg("generation aborted")
	}
}

type batchResult struct {
	StyleID   string `json:"styleId"`
	StyleName string `json:"styleName"`
	ImageURL  string `json:"imageUrl"`
}

type batchError struct {
	StyleID string `json:"styleId"`
	Error   string `json:"error"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
	Errors  []batchError  `json:"errors"`
}

// GenerateBatch runs the same pipeline and answers once with all outcomes.
func (a *App) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	req, session, err := a.parseGeneration(w, r)
	if err != nil {
		a.formError(w, err)
		return
	}
	defer a.cleanup(session, req.ID)
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	resp := batchResponse{Results: []batchResult{}, Errors: []batchError{}}
	collect := func(e domain.Event) error {
		switch e.Type {
		case domain.EventResult:
			resp.Results = append(resp.Results, batchResult{StyleID: e.StyleID, StyleName: e.StyleName, ImageURL: e.ImageURL})
		case domain.EventError:
			resp.Errors = append(resp.Errors, batchError{StyleID: e.StyleID, Error: e.Message})
		}
		return nil
	}

	if err := a.Runner.Run(r.Context(), req, collect); err != nil {
		if errors.Is(err, domain.ErrStreamClosed) {
			a.Logger.Info().Str("request_id", req.ID).Msg("client disconnected before completion")
			return
		}
		a.Logger.Error().Err(err).Str("request_id", req.ID).Msg("generation aborted")
		a.error(w, http.StatusInternalServerError, "internal", "generation failed")
		return
	}
	a.json(w, http.StatusOK, resp)
}
