package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/famomatic/ytresolve/client"
	"github.com/famomatic/ytresolve/internal/selector"
	"github.com/famomatic/ytresolve/internal/stream"
)

const maxRequestBody = 8 << 20

// Resolver is the part of *client.Client the handlers use.
type Resolver interface {
	Resolve(ctx context.Context, req client.ResolveRequest) (*client.Result, error)
	PlayerURL(ctx context.Context, input string) (string, error)
	ProbeSizes(ctx context.Context, q *client.StreamQuery) []client.SizeResult
}

// Handler exposes resolution endpoints using go-chi.
type Handler struct {
	res Resolver
	log *slog.Logger
}

func NewHandler(res Resolver, log *slog.Logger) *Handler {
	return &Handler{res: res, log: log}
}

// ResolveRequest is the body of POST /v1/resolve. PlayerResponse is either
// the player response object itself or a JSON string holding it.
type ResolveRequest struct {
	PlayerResponse json.RawMessage `json:"player_response"`
	PlayerURL      string          `json:"player_url"`
	VideoID        string          `json:"video_id"`
	Format         string          `json:"format"`
	Sizes          bool            `json:"sizes"`
}

type errorBody struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// Resolve handles POST /v1/resolve.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var body ResolveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&body); err != nil {
		h.log.Debug("invalid resolve body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	playerResponse, err := unwrapPlayerResponse(body.PlayerResponse)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Category: string(client.ErrorCategoryInvalidInput)})
		return
	}
	var sel *selector.Selector
	if body.Format != "" {
		if sel, err = selector.Parse(body.Format); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
	}

	res, err := h.res.Resolve(r.Context(), client.ResolveRequest{
		PlayerResponse: playerResponse,
		PlayerURL:      body.PlayerURL,
		VideoID:        body.VideoID,
	})
	if err != nil {
		h.writeError(w, "resolve failed", err)
		return
	}

	streams := res.Streams.All()
	if sel != nil {
		if streams, err = selector.Select(res.Streams, sel); err != nil {
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
			return
		}
	}
	var sizes []client.SizeResult
	if body.Sizes {
		sizes = h.res.ProbeSizes(r.Context(), stream.NewQuery(streams))
	}

	h.log.Info("resolved",
		slog.String("session_id", res.SessionID),
		slog.String("video_id", res.VideoID),
		slog.Int("streams", res.Streams.Len()),
		slog.Int("failures", len(res.Failures)))
	writeJSON(w, http.StatusOK, NewResolveView(res, streams, sizes))
}

// PlayerURL handles GET /v1/player-url?v=<id or url>.
func (h *Handler) PlayerURL(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("v")
	if input == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing v parameter", Category: string(client.ErrorCategoryInvalidInput)})
		return
	}
	playerURL, err := h.res.PlayerURL(r.Context(), input)
	if err != nil {
		h.writeError(w, "player url lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"player_url": playerURL})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	category := client.ClassifyError(err)
	status := statusFor(category)
	if status >= http.StatusInternalServerError {
		h.log.Error(msg, slog.String("category", string(category)), slog.String("error", err.Error()))
	} else {
		h.log.Info(msg, slog.String("category", string(category)), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Category: string(category)})
}

func statusFor(category client.ErrorCategory) int {
	switch category {
	case client.ErrorCategoryInvalidInput:
		return http.StatusBadRequest
	case client.ErrorCategoryManifestShape, client.ErrorCategoryPlayerURL, client.ErrorCategoryDownloadingLiveNotSupported:
		return http.StatusUnprocessableEntity
	case client.ErrorCategoryProgramNotFound, client.ErrorCategoryUnsupportedOperation,
		client.ErrorCategoryReplayIndex, client.ErrorCategoryNetwork:
		return http.StatusBadGateway
	case client.ErrorCategoryCanceled:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var errMissingPlayerResponse = errors.New("player_response is required")

func unwrapPlayerResponse(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errMissingPlayerResponse
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
