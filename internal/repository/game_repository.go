package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studentseats/ticket-marketplace/internal/model"
)

type GameRepo struct{ DB *sql.DB }

func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{DB: db} }

const gameColumns = "id,sport_type,name,game_time,cutoff_time"

// Create inserts a game with a precomputed trading cutoff and returns it.
func (r *GameRepo) Create(ctx context.Context, sport model.SportType, name string, gameTime, cutoffTime time.Time) (model.Game, error) {
	g := model.Game{
		ID:         uuid.NewString(),
		SportType:  sport,
		Name:       name,
		GameTime:   gameTime.UTC(),
		CutoffTime: cutoffTime.UTC(),
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO games (id, sport_type, name, game_time, cutoff_time) VALUES (?,?,?,?,?)",
		g.ID, g.SportType, g.Name, g.GameTime, g.CutoffTime)
	if err != nil {
		return model.Game{}, err
	}
	return g, nil
}

// GetByID fetches a single game.
func (r *GameRepo) GetByID(ctx context.Context, id string) (model.Game, error) {
	var g model.Game
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE id=? LIMIT 1", id).
		Scan(&g.ID, &g.SportType, &g.Name, &g.GameTime, &g.CutoffTime)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Game{}, ErrNotFound
	}
	return g, err
}

// ListUpcoming returns games still open for trading (cutoff in the future),
// soonest first.
func (r *GameRepo) ListUpcoming(ctx context.Context) ([]model.Game, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE cutoff_time > UTC_TIMESTAMP() ORDER BY game_time ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]model.Game, 0)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.SportType, &g.Name, &g.GameTime, &g.CutoffTime); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Delete removes a game. Returns ErrNotFound if no row was deleted.
func (r *GameRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM games WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
