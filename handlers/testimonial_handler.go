package handlers

import (
	"errors"
	"net/http"

	"github.com/fitfun/competition-system/middleware"
	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/services"
)

type TestimonialHandler struct {
	testimonialService services.TestimonialService
}

func NewTestimonialHandler(ts services.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{testimonialService: ts}
}

// SubmitHandler handles POST /testimonials.
func (h *TestimonialHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.SubmitTestimonialInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, err := h.testimonialService.Submit(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"testimonial": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /testimonials and shows approved entries
// only.
func (h *TestimonialHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.testimonialService.List(r.Context(), false)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"testimonials": testimonials}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListAllHandler handles GET /admin/testimonials: the full moderation
// queue, pending and hidden entries included.
func (h *TestimonialHandler) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.testimonialService.List(r.Context(), true)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"testimonials": testimonials}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ModerateHandler handles POST /testimonials/{testimonialID}/moderate.
func (h *TestimonialHandler) ModerateHandler(w http.ResponseWriter, r *http.Request) {
	moderatorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "testimonialID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.TestimonialStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Status != models.TestimonialApproved && input.Status != models.TestimonialHidden {
		badRequestResponse(w, r, errors.New("status must be approved or hidden"))
		return
	}

	if err := h.testimonialService.Moderate(r.Context(), id, moderatorID, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteHandler handles DELETE /testimonials/{testimonialID}.
func (h *TestimonialHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "testimonialID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.testimonialService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
