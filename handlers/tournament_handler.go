package handlers

import (
	"net/http"
	"time"

	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	rankingService    services.RankingService
}

func NewTournamentHandler(ts services.TournamentService, rs services.RankingService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		rankingService:    rs,
	}
}

type createTournamentRequest struct {
	Name             string                       `json:"name"`
	TournamentTypeID int64                        `json:"tournament_type_id"`
	Format           models.TournamentFormat      `json:"format"`
	InstructorID     *int64                       `json:"instructor_id,omitempty"`
	MaxParticipants  int                          `json:"max_participants"`
	EnrollmentCost   int                          `json:"enrollment_cost"`
	FormatParams     models.FormatParams          `json:"format_params"`
	RewardPolicy     *models.RewardPolicySnapshot `json:"reward_policy"`
	RegDate          time.Time                    `json:"reg_date"`
	StartDate        time.Time                    `json:"start_date"`
}

// CreateHandler handles POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input createTournamentRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), services.CreateTournamentParams{
		Name:             input.Name,
		TournamentTypeID: input.TournamentTypeID,
		Format:           input.Format,
		InstructorID:     input.InstructorID,
		MaxParticipants:  input.MaxParticipants,
		EnrollmentCost:   input.EnrollmentCost,
		FormatParams:     input.FormatParams,
		RewardPolicy:     input.RewardPolicy,
		RegDate:          input.RegDate,
		StartDate:        input.StartDate,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type transitionRequest struct {
	Status                 models.TournamentStatus `json:"status"`
	ConfirmLargeTournament bool                    `json:"confirm_large_tournament,omitempty"`
}

// TransitionHandler handles POST /tournaments/{tournamentID}/transition
func (h *TournamentHandler) TransitionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input transitionRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, report, err := h.tournamentService.Transition(r.Context(), id, input.Status, services.TransitionOptions{
		ConfirmLargeTournament: input.ConfirmLargeTournament,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	payload := jsonResponse{"tournament": tournament}
	if report != nil {
		payload["reward_report"] = report
	}
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RankingsHandler handles GET /tournaments/{tournamentID}/rankings
func (h *TournamentHandler) RankingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.rankingService.CalculateRankings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
