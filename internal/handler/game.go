package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/studentseats/ticket-marketplace/internal/config"
	"github.com/studentseats/ticket-marketplace/internal/model"
	"github.com/studentseats/ticket-marketplace/internal/repository"
)

// GameHandler serves the public game listing and the admin game management
// endpoints.
type GameHandler struct {
	Cfg   config.Config
	Games GameStore
}

func NewGameHandler(cfg config.Config, games GameStore) *GameHandler {
	return &GameHandler{Cfg: cfg, Games: games}
}

type createGameReq struct {
	SportType string    `json:"sport_type"`
	Name      string    `json:"name"`
	GameTime  time.Time `json:"game_time"`
}

// List returns upcoming games still open for trading.
func (h *GameHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	games, err := h.Games.ListUpcoming(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"games": games})
}

// Create adds a game (admin). The trading cutoff is derived from the game
// time minus the configured listing cutoff.
func (h *GameHandler) Create(c echo.Context) error {
	var req createGameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "game name required"})
	}
	if !req.GameTime.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "game time must be in the future"})
	}
	sport, err := model.ParseSportType(req.SportType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sport type"})
	}

	cutoff := req.GameTime.Add(-time.Duration(h.Cfg.ListingCutoffMin) * time.Minute)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	game, err := h.Games.Create(ctx, sport, req.Name, req.GameTime, cutoff)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create game failed"})
	}

	log.WithFields(log.Fields{"game_id": game.ID, "name": game.Name}).Info("game created")

	return c.JSON(http.StatusCreated, game)
}

// Delete removes a game (admin).
func (h *GameHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Games.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete game failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
