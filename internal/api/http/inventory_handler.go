package http

import (
	"net/http"
	"strconv"
	"time"
)

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid product id")
		return
	}

	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour)
	to := from.AddDate(0, 1, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "from must be RFC3339")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "to must be RFC3339")
			return
		}
		to = t
	}

	// A quantity query turns this into a yes/no check, answered from the
	// cached unit counter when it can already rule the window out.
	if v := r.URL.Query().Get("quantity"); v != "" {
		quantity, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "quantity must be an integer")
			return
		}
		available, err := h.ledger.CheckAvailability(r.Context(), id, from, to, quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product_id": id, "quantity": quantity, "available": available})
		return
	}

	days, err := h.ledger.AvailabilityCalendar(r.Context(), id, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": id, "days": days})
}

func (h *Handler) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeBadRequest(w, "invalid product id")
		return
	}
	var req struct {
		Quantity int    `json:"quantity"`
		Action   string `json:"action"` // "hold" or "release"
	}
	if !decodeBody(r, &req) {
		writeBadRequest(w, "malformed request body")
		return
	}

	var err error
	switch req.Action {
	case "hold":
		err = h.ledger.MoveToMaintenance(r.Context(), id, req.Quantity)
	case "release":
		err = h.ledger.ReturnFromMaintenance(r.Context(), id, req.Quantity)
	default:
		writeBadRequest(w, "action must be hold or release")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}
