package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fitfun/competition-system/middleware"
	"github.com/fitfun/competition-system/services"
)

type MeasurementHandler struct {
	measurementService services.MeasurementService
}

func NewMeasurementHandler(ms services.MeasurementService) *MeasurementHandler {
	return &MeasurementHandler{measurementService: ms}
}

// SubmitHandler handles POST /measurements.
func (h *MeasurementHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.SubmitMeasurementInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	m, err := h.measurementService.Submit(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"measurement": m}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /measurements with an optional
// competition_id filter.
func (h *MeasurementHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var competitionID *int
	if raw := r.URL.Query().Get("competition_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("invalid competition_id query parameter"))
			return
		}
		competitionID = &id
	}

	measurements, err := h.measurementService.ListForUser(r.Context(), userID, competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"measurements": measurements}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListForCompetitionHandler handles GET /competitions/{competitionID}/measurements.
func (h *MeasurementHandler) ListForCompetitionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	measurements, err := h.measurementService.ListForCompetition(r.Context(), competitionID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"measurements": measurements}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler handles PATCH /measurements/{measurementID}.
func (h *MeasurementHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "measurementID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMeasurementInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	m, err := h.measurementService.Update(r.Context(), id, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"measurement": m}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /measurements/{measurementID}.
func (h *MeasurementHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "measurementID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.measurementService.Delete(r.Context(), id, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemindersHandler handles GET /measurements/reminders.
func (h *MeasurementHandler) RemindersHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	reminders, err := h.measurementService.Reminders(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"reminders": reminders}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
