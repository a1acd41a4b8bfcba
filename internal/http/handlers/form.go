package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"headshot/internal/domain"
	"headshot/internal/middleware"
	"headshot/internal/storage"
)

const (
	fieldProfiles = "profiles"
	fieldStyleRef = "styleRef"

	maxFormMemory = 8 << 20
)

var errBodyTooLarge = errors.New("request body too large")

// parseGeneration reads the multipart form, spools images into a fresh
// upload session and validates the request. On success the caller owns the
// session and must clean it up; on failure nothing is left behind.
func (a *App) parseGeneration(w http.ResponseWriter, r *http.Request) (*domain.GenerationRequest, *storage.UploadSession, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, errBodyTooLarge
		}
		return nil, nil, domain.Invalid("form", fmt.Errorf("malformed multipart form: %w", err))
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := r.MultipartForm
	profiles := form.File[fieldProfiles]
	if len(profiles) == 0 {
		return nil, nil, domain.Invalid(fieldProfiles, domain.ErrNoImages)
	}
	if len(profiles) > a.Config.MaxProfileImages {
		return nil, nil, domain.Invalid(fieldProfiles, fmt.Errorf("%w: got %d, max %d", domain.ErrTooManyImages, len(profiles), a.Config.MaxProfileImages))
	}
	refs := form.File[fieldStyleRef]
	if len(refs) > 1 {
		return nil, nil, domain.Invalid(fieldStyleRef, errors.New("at most one style reference image"))
	}

	params := domain.RequestParams{
		ID:        requestID(r),
		MaxImages: a.Config.MaxProfileImages,
	}
	var err error
	if params.StyleIDs, err = parseStyles(form.Value["styles"]); err != nil {
		return nil, nil, domain.Invalid("styles", err)
	}
	if params.FaceMode, err = parseFaceMode(formValue(form, "faceMode"), formValue(form, "mixFaces")); err != nil {
		return nil, nil, domain.Invalid("faceMode", err)
	}
	if params.PrimaryIndex, err = parseIntField(formValue(form, "primaryImageIndex"), 0); err != nil {
		return nil, nil, domain.Invalid("primaryImageIndex", fmt.Errorf("%w: %v", domain.ErrInvalidPrimaryIndex, err))
	}
	if params.Year, err = parseIntField(formValue(form, "year"), a.clock().Year()); err != nil {
		return nil, nil, domain.Invalid("year", fmt.Errorf("%w: %v", domain.ErrInvalidYear, err))
	}
	if params.TargetAngle, err = domain.ParseTargetAngle(formValue(form, "targetAngle")); err != nil {
		return nil, nil, domain.Invalid("targetAngle", err)
	}
	params.AspectRatio = formValue(form, "aspectRatio")

	session := storage.BeginUpload(a.Uploads)
	ok := false
	defer func() {
		if !ok {
			a.cleanup(session, params.ID)
		}
	}()

	for _, fh := range profiles {
		blob, err := saveFile(r, session, fh)
		if err != nil {
			return nil, nil, domain.Invalid(fieldProfiles, err)
		}
		params.Images = append(params.Images, blob)
	}
	if len(refs) == 1 {
		blob, err := saveFile(r, session, refs[0])
		if err != nil {
			return nil, nil, domain.Invalid(fieldStyleRef, err)
		}
		params.Reference = &blob
	}

	req, err := domain.NewGenerationRequest(params, a.Catalog)
	if err != nil {
		return nil, nil, err
	}
	ok = true
	return req, session, nil
}

func (a *App) cleanup(session *storage.UploadSession, requestID string) {
	if err := session.Cleanup(); err != nil {
		a.Logger.Warn().Err(err).Str("request_id", requestID).Msg("remove upload session")
	}
}

// formError maps a parse or validation failure to an HTTP error response.
func (a *App) formError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, errBodyTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.As(err, &verr):
		a.error(w, http.StatusBadRequest, "bad_request", verr.Error())
	default:
		a.Logger.Error().Err(err).Msg("prepare generation request")
		a.error(w, http.StatusInternalServerError, "internal", "failed to prepare request")
	}
}

func saveFile(r *http.Request, session *storage.UploadSession, fh *multipart.FileHeader) (domain.ImageBlob, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.ImageBlob{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return session.Save(r.Context(), fh.Filename, f)
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// parseStyles accepts a JSON array of ids, repeated fields, or a comma list.
func parseStyles(values []string) ([]string, error) {
	var out []string
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "[") {
			var ids []string
			if err := json.Unmarshal([]byte(raw), &ids); err != nil {
				return nil, fmt.Errorf("styles must be a JSON array of strings: %w", err)
			}
			out = append(out, ids...)
			continue
		}
		out = append(out, strings.Split(raw, ",")...)
	}
	return out, nil
}

// requestID reuses the id assigned by the RequestID middleware so logs and
// spans for one request share it.
func requestID(r *http.Request) string {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

func parseFaceMode(mode, mixFaces string) (domain.FaceMode, error) {
	if mode == "" && strings.EqualFold(mixFaces, "true") {
		return domain.FaceModeMix, nil
	}
	return domain.ParseFaceMode(mode)
}

func parseIntField(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
