package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/render"
	"github.com/mburuwhiz/idmaker-sub000/internal/sheet"
)

// PreviewHandler renders single cards and full sheets as PNG.
type PreviewHandler struct {
	renderer   *render.Renderer
	compositor *sheet.Compositor
	profiles   *ProfileStore
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(r *render.Renderer, profiles *ProfileStore) *PreviewHandler {
	return &PreviewHandler{
		renderer:   r,
		compositor: sheet.New(r),
		profiles:   profiles,
	}
}

// SideRequest is one card: its record, an optional photo as data URL or
// base64, and optional photo adjustments. Without adjustments the record's
// own _adjustments field is used.
type SideRequest struct {
	Record      design.Record       `json:"record"`
	Photo       string              `json:"photo,omitempty"`
	Adjustments *design.Adjustments `json:"adjustments,omitempty"`
}

func (s SideRequest) side() (sheet.Side, error) {
	photo, err := decodePhoto(s.Photo)
	if err != nil {
		return sheet.Side{}, err
	}
	return sheet.Side{Record: s.Record, Photo: photo, Adjustments: s.Adjustments}, nil
}

// PreviewCardRequest represents a card preview request
type PreviewCardRequest struct {
	Template json.RawMessage `json:"template"`
	SideRequest
}

// PreviewSheetRequest represents a sheet preview request
type PreviewSheetRequest struct {
	Template json.RawMessage `json:"template"`
	Profile  string          `json:"profile,omitempty"`
	First    SideRequest     `json:"first"`
	Second   *SideRequest    `json:"second,omitempty"`
}

func decodeTemplate(w http.ResponseWriter, raw json.RawMessage) (*design.Template, bool) {
	if len(raw) == 0 {
		respondError(w, http.StatusBadRequest, "template is required")
		return nil, false
	}
	tmpl, err := design.Decode(raw)
	if err != nil {
		respondError(w, templateStatus(err), err.Error())
		return nil, false
	}
	return tmpl, true
}

// Card renders one card to PNG.
func (h *PreviewHandler) Card(w http.ResponseWriter, r *http.Request) {
	var req PreviewCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	tmpl, ok := decodeTemplate(w, req.Template)
	if !ok {
		return
	}
	side, err := req.side()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	adj := design.ResolveAdjustments(side.Record)
	if side.Adjustments != nil {
		adj = side.Adjustments.Normalize()
	}
	card, err := h.renderer.RenderCard(r.Context(), tmpl, side.Record, side.Photo, adj)
	if err != nil {
		log.Printf("WARNING: card preview failed: %s", sanitizeForLog(err.Error()))
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render card: %v", err))
		return
	}
	respondPNG(w, card.Image, card.Warnings)
}

// Sheet renders a full A4 sheet to PNG using the requested calibration
// profile, or the default one.
func (h *PreviewHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	var req PreviewSheetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	tmpl, ok := decodeTemplate(w, req.Template)
	if !ok {
		return
	}
	profile, err := h.profiles.Find(req.Profile)
	if err != nil {
		respondError(w, profileStatus(err), err.Error())
		return
	}

	first, err := req.First.side()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var second *sheet.Side
	if req.Second != nil {
		s, err := req.Second.side()
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		second = &s
	}

	sh, err := h.compositor.RenderSheet(r.Context(), tmpl, profile, first, second)
	if err != nil {
		log.Printf("WARNING: sheet preview failed: %s", sanitizeForLog(err.Error()))
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render sheet: %v", err))
		return
	}
	respondPNG(w, sh.Image, sh.Warnings)
}
