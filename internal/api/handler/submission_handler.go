package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hourbook/volunteer-api/internal/api/metrics"
	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

// SubmissionHandler handles HTTP requests for the caller's own submissions.
// Every route behind it requires the Auth middleware.
type SubmissionHandler struct {
	service ports.SubmissionService
	refs    objectReferencer
}

func NewSubmissionHandler(service ports.SubmissionService, refs objectReferencer) *SubmissionHandler {
	return &SubmissionHandler{service: service, refs: refs}
}

// List handles GET /submissions.
//
// @Summary      List own submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   submissionResponse
// @Failure      401  {object}  errorResponse
// @Router       /submissions [get]
func (h *SubmissionHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	items, err := h.service.ListForOwner(c.Request().Context(), p.UserID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSubmissionResponses(items, h.refs))
}

// Create handles POST /submissions.
//
// @Summary      Create a submission
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSubmissionRequest  true  "Submission fields"
// @Success      201   {object}  submissionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /submissions [post]
func (h *SubmissionHandler) Create(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req createSubmissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := h.service.Create(c.Request().Context(), p.UserID(), req.toInput())
	if err != nil {
		return err
	}

	metrics.SubmissionsCreatedTotal.WithLabelValues(string(sub.Status)).Inc()
	return c.JSON(http.StatusCreated, toSubmissionResponse(sub, h.refs))
}

// UploadURL returns the handler for GET /submissions/:id/<kind>-upload-url.
//
// @Summary      Issue a signature upload URL
// @Description  The URL accepts a single PUT of an image/png body for five minutes.
// @Tags         signatures
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission id"
// @Success      200  {object}  uploadURLResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /submissions/{id}/signature-upload-url [get]
func (h *SubmissionHandler) UploadURL(kind domain.SignatureKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := currentPrincipal(c)
		if err != nil {
			return err
		}

		out, err := h.service.UploadURL(c.Request().Context(), p.UserID(), c.Param("id"), kind)
		if err != nil {
			return err
		}

		metrics.SignatureURLsIssuedTotal.WithLabelValues(string(kind), "upload").Inc()
		return c.JSON(http.StatusOK, uploadURLResponse{UploadURL: out.UploadURL, Key: out.Key})
	}
}

// SaveSignature returns the handler for PATCH /submissions/:id/<kind>.
//
// @Summary      Attach an uploaded signature
// @Tags         signatures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Submission id"
// @Param        body  body      saveSignatureRequest  true  "Key returned by the upload-url call"
// @Success      200   {object}  submissionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /submissions/{id}/signature [patch]
func (h *SubmissionHandler) SaveSignature(kind domain.SignatureKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := currentPrincipal(c)
		if err != nil {
			return err
		}

		var req saveSignatureRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		sub, err := h.service.SaveSignature(c.Request().Context(), p.UserID(), c.Param("id"), req.SignatureKey, kind)
		if err != nil {
			return err
		}

		metrics.SignaturesSavedTotal.WithLabelValues(string(kind)).Inc()
		return c.JSON(http.StatusOK, toSubmissionResponse(sub, h.refs))
	}
}

// ViewURL returns the handler for GET /submissions/:id/<kind>.
//
// @Summary      Issue a signature view URL
// @Description  viewUrl is null when no signature has been saved. Issued URLs expire after one minute.
// @Tags         signatures
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission id"
// @Success      200  {object}  viewURLResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /submissions/{id}/signature [get]
func (h *SubmissionHandler) ViewURL(kind domain.SignatureKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := currentPrincipal(c)
		if err != nil {
			return err
		}

		out, err := h.service.ViewURL(c.Request().Context(), p.UserID(), c.Param("id"), kind)
		if err != nil {
			return err
		}

		if out.ViewURL != nil {
			metrics.SignatureURLsIssuedTotal.WithLabelValues(string(kind), "view").Inc()
		}
		return c.JSON(http.StatusOK, viewURLResponse{ViewURL: out.ViewURL})
	}
}
