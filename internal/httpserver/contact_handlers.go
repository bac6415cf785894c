package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"messenger/internal/service"
)

type addContactRequest struct {
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

func handleListContacts(contactSvc *service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		contacts, err := contactSvc.List(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
	}
}

// handleListOnlineContacts answers the presence bootstrap: presence events
// are not replayed, so clients query this right after connecting.
func handleListOnlineContacts(contactSvc *service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		contacts, err := contactSvc.ListOnline(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
	}
}

func handleAddContact(contactSvc *service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req addContactRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}

		contact, err := contactSvc.Add(r.Context(), user, req.ContactEmail)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, contact)
	}
}

func handleRemoveContact(contactSvc *service.ContactService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		idStr := chi.URLParam(r, "contactID")
		contactID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid contact id"})
			return
		}

		if err := contactSvc.Remove(r.Context(), user.ID, contactID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
