package handlers

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-qlearning/internal/config"
	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
)

// GameHandler serves live games played by a trained table. The table is
// only read.
type GameHandler struct {
	log      logrus.FieldLogger
	table    *qlearn.Table
	cfg      env.Config
	summary  qlearn.Summary
	maxSteps int
	ws       *config.WebSocket
	sessions *Sessions

	mu  sync.Mutex
	rnd *rand.Rand
}

type GameHandlerParams struct {
	Table    *qlearn.Table
	Env      env.Config
	Summary  qlearn.Summary
	MaxSteps int
	MaxGames int
}

func NewGameHandler(
	log logrus.FieldLogger,
	params GameHandlerParams,
	ws *config.WebSocket,
	rnd *rand.Rand,
) *GameHandler {
	return &GameHandler{
		log:      log,
		table:    params.Table,
		cfg:      params.Env,
		summary:  params.Summary,
		maxSteps: params.MaxSteps,
		ws:       ws,
		sessions: NewSessions(params.MaxGames),
		rnd:      rnd,
	}
}

func (g *GameHandler) newEnvironment() (*env.Environment, error) {
	g.mu.Lock()
	seed1, seed2 := g.rnd.Uint64(), g.rnd.Uint64()
	g.mu.Unlock()
	return env.New(g.cfg, rand.New(rand.NewPCG(seed1, seed2)))
}

func (g *GameHandler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := g.sessions.Get(r.PathValue("id"))
	if err != nil {
		sendError(w, g.log, http.StatusNotFound, err)
		return nil, false
	}
	return s, true
}

func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	e, err := g.newEnvironment()
	if err != nil {
		g.log.WithError(err).Error("unable to create environment")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s, err := g.sessions.Add(e, g.table, g.maxSteps)
	if err != nil {
		sendError(w, g.log, http.StatusServiceUnavailable, err)
		return
	}
	g.log.WithField("game_id", s.ID()).Debug("game created")

	w.WriteHeader(http.StatusCreated)
	sendJSONOrLog(w, g.log, s.DTO())
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, g.log, s.DTO())
}

// stepStatus maps step errors to HTTP statuses.
func stepStatus(err error) int {
	var (
		ce mines.ConfigurationError
		be mines.BoundsError
	)
	switch {
	case errors.As(err, &ce), errors.As(err, &be):
		return http.StatusBadRequest
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrStepLimit):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (g *GameHandler) Step(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}

	action, explicit, err := ParseAction(r.URL.Query())
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	var choice *env.Action
	if explicit {
		choice = &action
	}

	rec, err := s.Step(choice)
	if err != nil {
		sendError(w, g.log, stepStatus(err), err)
		return
	}
	g.logStep(s, rec)

	sendJSONOrLog(w, g.log, StepDTO{Step: rec, Game: s.DTO()})
}

func (g *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}
	records, err := s.Play()
	if err != nil {
		sendError(w, g.log, stepStatus(err), err)
		return
	}
	sendJSONOrLog(w, g.log, PlayDTO{Steps: records, Game: s.DTO()})
}

func (g *GameHandler) logStep(s *Session, rec qlearn.StepRecord) {
	g.log.WithFields(logrus.Fields{
		"game_id": s.ID(),
		"step":    rec.Step,
		"action":  rec.Action,
		"value":   rec.Value,
		"reward":  rec.Outcome.Reward,
		"event":   rec.Outcome.Info.Event,
	}).Debug("step")
}

// wsCommand runs one text command against s. "step" and an empty line let
// the agent move, "play" lets it finish the game, anything else must be an
// action such as "reveal:1:2".
func wsCommand(s *Session, text string) (any, error) {
	switch text {
	case "", "step":
		rec, err := s.Step(nil)
		if err != nil {
			return nil, err
		}
		return StepDTO{Step: rec, Game: s.DTO()}, nil
	case "play":
		records, err := s.Play()
		if err != nil {
			return nil, err
		}
		return PlayDTO{Steps: records, Game: s.DTO()}, nil
	}
	action, err := env.ParseAction(text)
	if err != nil {
		return nil, err
	}
	rec, err := s.Step(&action)
	if err != nil {
		return nil, err
	}
	return StepDTO{Step: rec, Game: s.DTO()}, nil
}

func (g *GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	s, ok := g.session(w, r)
	if !ok {
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Error("unable to upgrade")
		return
	}
	defer c.Close()

	log := g.log.WithField("game_id", s.ID())
	if err := c.WriteJSON(s.DTO()); err != nil {
		log.WithError(err).Error("unable to write json")
		return
	}

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("abnormal ws break")
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}

		var reply any
		for _, line := range strings.Split(strings.TrimSpace(string(message)), "\n") {
			log.Debugf("\t> %s", line)
			reply, err = wsCommand(s, strings.TrimSpace(line))
			if err != nil {
				reply = wrapError(err)
				break
			}
		}

		if err := c.WriteJSON(reply); err != nil {
			log.WithError(err).Error("unable to write json")
			return
		}
	}
}

func (g *GameHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseEvaluateDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	if dto.Episodes <= 0 || dto.Episodes > 100_000 {
		sendError(w, g.log, http.StatusBadRequest,
			mines.NewConfigurationError("episodes must be in [1, 100000], got %d", dto.Episodes))
		return
	}

	evaluator, err := qlearn.NewEvaluator(g.table, g.cfg, g.maxSteps)
	if err != nil {
		sendError(w, g.log, http.StatusInternalServerError, err)
		return
	}
	res, err := evaluator.Evaluate(dto.Episodes, dto.Seed)
	if err != nil {
		sendError(w, g.log, http.StatusInternalServerError, err)
		return
	}
	sendJSONOrLog(w, g.log, res)
}

func (g *GameHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sendJSONOrLog(w, g.log, StatsDTO{
		Width:     g.cfg.Params.Width,
		Height:    g.cfg.Params.Height,
		MineCount: g.cfg.Params.MineCount,
		Variant:   g.cfg.Variant,
		Rewards:   g.cfg.Rewards,
		TableSize: g.table.Len(),
		Games:     g.sessions.Len(),
		Training:  g.summary,
	})
}
