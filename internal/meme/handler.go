package meme

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memebin/service/internal/response"
)

// Handler holds HTTP handlers for the meme endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new meme Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the meme endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/upload", h.Upload)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List godoc
//
//	@Summary		List memes
//	@Description	Returns all memes ordered by creation time, newest first.
//	@Tags			memes
//	@Produce		json
//	@Success		200	{array}		Meme
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/memes [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memes, err := h.svc.List(r.Context())
	if err != nil {
		log.Printf("list memes: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, memes)
}

// Get godoc
//
//	@Summary		Get a meme
//	@Tags			memes
//	@Produce		json
//	@Param			id	path		string	true	"Meme ID"
//	@Success		200	{object}	Meme
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/memes/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "meme not found")
			return
		}
		log.Printf("get meme: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, m)
}

// Create godoc
//
//	@Summary		Create a meme from an existing image URL
//	@Tags			memes
//	@Accept			json
//	@Produce		json
//	@Param			meme	body		Meme	true	"Meme to create (id and createdAt are server-assigned)"
//	@Success		201		{object}	Meme
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/memes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var m Meme
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	stored, err := h.svc.Create(r.Context(), &m)
	if err != nil {
		if h.svc.IsInvalidInput(err) {
			response.BadRequest(w, err.Error())
			return
		}
		log.Printf("create meme: %v", err)
		response.InternalError(w)
		return
	}
	response.Created(w, "/api/memes/"+stored.ID, stored)
}

// Update godoc
//
//	@Summary		Replace a meme
//	@Description	Overwrites all mutable fields. The body id, when present, must match the path id.
//	@Tags			memes
//	@Accept			json
//	@Param			id		path	string	true	"Meme ID"
//	@Param			meme	body	Meme	true	"Replacement record"
//	@Success		204
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/memes/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var m Meme
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if _, err := h.svc.Replace(r.Context(), chi.URLParam(r, "id"), &m); err != nil {
		if h.svc.IsInvalidInput(err) {
			response.BadRequest(w, err.Error())
			return
		}
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "meme not found")
			return
		}
		log.Printf("replace meme: %v", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// Delete godoc
//
//	@Summary		Delete a meme
//	@Description	Removes the metadata row after a best-effort delete of the stored object.
//	@Tags			memes
//	@Param			id	path	string	true	"Meme ID"
//	@Success		204
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/memes/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "meme not found")
			return
		}
		log.Printf("delete meme: %v", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// Upload godoc
//
//	@Summary		Upload an image and create its meme record
//	@Tags			memes
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			imageFile	formData	file	true	"Image file (jpeg, jpg, png, gif, webp; max 10 MiB)"
//	@Param			keywords	formData	string	false	"Comma-separated keywords (max 10)"
//	@Success		201	{object}	Meme
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/memes/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("imageFile")
	if err != nil {
		response.BadRequest(w, "image file is required and must not be empty")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("read upload: %v", err)
		response.InternalError(w)
		return
	}

	stored, err := h.svc.Upload(r.Context(), data, header.Header.Get("Content-Type"), header.Filename, r.FormValue("keywords"))
	if err != nil {
		if h.svc.IsInvalidInput(err) {
			response.BadRequest(w, err.Error())
			return
		}
		log.Printf("upload meme: %v", err)
		response.InternalError(w)
		return
	}
	response.Created(w, "/api/memes/"+stored.ID, stored)
}
