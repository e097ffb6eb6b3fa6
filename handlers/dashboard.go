package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/andrewpaige1/flashcards-api/utils"
)

// GET /api/dashboard
func (db *DBHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	dashboard, err := db.Stats.Dashboard(r.Context(), user.ID, db.now())
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("GetDashboard: failed to load stats")
		utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, dashboard)
}
