package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/repository"
)

type RunLister interface {
	Leaderboard(ctx context.Context, filter repository.RunFilter) ([]repository.RunScore, error)
}

type LeaderboardHandler struct {
	log  logrus.FieldLogger
	runs RunLister
}

func NewLeaderboardHandler(log logrus.FieldLogger, runs RunLister) *LeaderboardHandler {
	return &LeaderboardHandler{log: log, runs: runs}
}

// Filter turns the query into a repository filter. Board dimensions only
// filter when all three are given.
func (dto LeaderboardDTO) Filter() (repository.RunFilter, error) {
	filter := repository.RunFilter{Limit: dto.Limit}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	if dto.Width > 0 && dto.Height > 0 {
		params := mines.GameParams{Width: dto.Width, Height: dto.Height, MineCount: dto.MineCount}
		if err := params.Validate(); err != nil {
			return filter, err
		}
		filter.GameParams = &params
	}
	if dto.Variant != "" {
		variant, err := env.ParseVariant(dto.Variant)
		if err != nil {
			return filter, err
		}
		filter.Variant = &variant
	}
	return filter, nil
}

func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	var dto LeaderboardDTO
	if err := decoder.Decode(&dto, r.URL.Query()); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	filter, err := dto.Filter()
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	scores, err := h.runs.Leaderboard(r.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("unable to fetch leaderboard")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if scores == nil {
		scores = []repository.RunScore{}
	}
	sendJSONOrLog(w, h.log, scores)
}
