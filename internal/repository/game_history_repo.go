package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"mines_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// хранит архив завершенных раундов
type GameHistoryRepository struct {
	db *pgxpool.Pool
}

func NewGameHistoryRepository(db *pgxpool.Pool) *GameHistoryRepository {
	return &GameHistoryRepository{db: db}
}

const historyColumns = `id, session_id, player_id, result,
	bet_amount::text, multiplier::text, payout::text,
	mine_count, grid_size, gems_found, cashed_out, mines, revealed,
	server_seed, server_seed_hash, client_seed, nonce,
	started_at, finished_at, created_at`

// сохраняет раунд; суммы передаются текстом, чтобы не терять точность
func (r *GameHistoryRepository) Create(ctx context.Context, h *domain.GameHistory) error {
	minesJSON, err := json.Marshal(h.Mines)
	if err != nil {
		return fmt.Errorf("encode mines: %w", err)
	}
	revealedJSON, err := json.Marshal(h.Revealed)
	if err != nil {
		return fmt.Errorf("encode revealed: %w", err)
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO game_history (
			session_id, player_id, result, bet_amount, multiplier, payout,
			mine_count, grid_size, gems_found, cashed_out, mines, revealed,
			server_seed, server_seed_hash, client_seed, nonce, started_at, finished_at
		) VALUES (
			$1, $2, $3, $4::text::numeric, $5::text::numeric, $6::text::numeric,
			$7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id, created_at
	`,
		h.SessionID, h.PlayerID, string(h.Result), h.BetAmount.String(), h.Multiplier.String(), h.Payout.String(),
		h.MineCount, h.GridSize, h.GemsFound, h.CashedOut, minesJSON, revealedJSON,
		h.ServerSeed, h.ServerSeedHash, h.ClientSeed, int64(h.Nonce), h.StartedAt, h.FinishedAt,
	).Scan(&h.ID, &h.CreatedAt)
}

// возвращает последние раунды игрока
func (r *GameHistoryRepository) GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*domain.GameHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+historyColumns+`
		FROM game_history
		WHERE player_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

// лучшие выигрыши по множителю
func (r *GameHistoryRepository) GetTopMultipliers(ctx context.Context, limit int) ([]*domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT player_id, session_id, multiplier::text, payout::text, mine_count, finished_at
		FROM game_history
		WHERE result = 'win'
		ORDER BY multiplier DESC, finished_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		var multiplier, payout string
		if err := rows.Scan(&e.PlayerID, &e.SessionID, &multiplier, &payout, &e.MineCount, &e.FinishedAt); err != nil {
			return nil, err
		}
		if e.Multiplier, err = decimal.NewFromString(multiplier); err != nil {
			return nil, err
		}
		if e.Payout, err = decimal.NewFromString(payout); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanHistory(rows pgx.Rows) ([]*domain.GameHistory, error) {
	var out []*domain.GameHistory
	for rows.Next() {
		var h domain.GameHistory
		var result, bet, multiplier, payout string
		var minesJSON, revealedJSON []byte
		var nonce int64

		if err := rows.Scan(
			&h.ID, &h.SessionID, &h.PlayerID, &result,
			&bet, &multiplier, &payout,
			&h.MineCount, &h.GridSize, &h.GemsFound, &h.CashedOut, &minesJSON, &revealedJSON,
			&h.ServerSeed, &h.ServerSeedHash, &h.ClientSeed, &nonce,
			&h.StartedAt, &h.FinishedAt, &h.CreatedAt,
		); err != nil {
			return nil, err
		}

		h.Result = domain.GameResult(result)
		h.Nonce = uint64(nonce)

		var err error
		if h.BetAmount, err = decimal.NewFromString(bet); err != nil {
			return nil, err
		}
		if h.Multiplier, err = decimal.NewFromString(multiplier); err != nil {
			return nil, err
		}
		if h.Payout, err = decimal.NewFromString(payout); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(minesJSON, &h.Mines); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(revealedJSON, &h.Revealed); err != nil {
			return nil, err
		}

		out = append(out, &h)
	}
	return out, rows.Err()
}
