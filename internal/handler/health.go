package handler

import (
	"net/http"

	"github.com/sakif/dating-profiles/internal/respond"
)

// HandleHealth is a liveness probe. It does not touch the store.
//
// HTTP: GET /health
// RESPONSE: 200 {"status":"ok"}
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
