package handlers

import (
	"net/http"

	"github.com/skillforge/tournament-engine/services"
)

type RewardHandler struct {
	rewardService services.RewardService
}

func NewRewardHandler(rs services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rs}
}

// DistributeHandler handles POST /tournaments/{tournamentID}/rewards/distribute.
// Repeat calls re-run the orchestrator; already-granted rewards are
// deduplicated by the ledger, so only failed participants are retried.
func (h *RewardHandler) DistributeHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.rewardService.DistributeRewards(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if len(report.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	if err := writeJSON(w, status, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
