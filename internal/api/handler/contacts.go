package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/contacts"
)

// ContactStore manages the caller's emergency contacts.
type ContactStore interface {
	List(ctx context.Context, userID string) ([]*contacts.Contact, error)
	Add(ctx context.Context, userID string, input *contacts.CreateInput) (*contacts.Contact, error)
	Update(ctx context.Context, userID, contactID string, input *contacts.UpdateInput) (*contacts.Contact, error)
	Remove(ctx context.Context, userID, contactID string) error
}

// ContactHandler serves /v1/contacts. Every route requires authentication.
type ContactHandler struct {
	store  ContactStore
	logger zerolog.Logger
}

func NewContactHandler(store ContactStore, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{store: store, logger: logger}
}

// ListContacts handles GET /v1/contacts.
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := models.ContactList{
		Contacts: make([]models.EmergencyContact, 0, len(list)),
		Max:      contacts.MaxContactsPerUser,
	}
	for _, c := range list {
		resp.Contacts = append(resp.Contacts, toEmergencyContact(c))
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// AddContact handles POST /v1/contacts.
func (h *ContactHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	var input contacts.CreateInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.store.Add(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/contacts/"+c.ID, toEmergencyContact(c))
}

// UpdateContact handles PATCH /v1/contacts/{contactId}.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var input contacts.UpdateInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.store.Update(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "contactId"), &input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toEmergencyContact(c))
}

// RemoveContact handles DELETE /v1/contacts/{contactId}.
func (h *ContactHandler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "contactId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

func toEmergencyContact(c *contacts.Contact) models.EmergencyContact {
	return models.EmergencyContact{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Relation:  c.Relation,
		CreatedAt: models.Timestamp(c.CreatedAt),
		UpdatedAt: models.Timestamp(c.UpdatedAt),
	}
}
