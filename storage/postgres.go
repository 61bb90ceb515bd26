package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresUserDB struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresUserDB(pool *pgxpool.Pool, log *slog.Logger) *PostgresUserDB {
	log = log.With(slog.String("component", "storage"))
	log.Info("Initializing Postgres user storage")
	return &PostgresUserDB{
		pool: pool,
		log:  log,
	}
}

func (db *PostgresUserDB) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

func (db *PostgresUserDB) GetPreferences(ctx context.Context, userID string) ([]string, error) {
	const op = "storage.postgres.GetPreferences"
	return db.queryIDs(ctx, op, userID, `
	SELECT preference
	FROM user_preferences
	WHERE user_id = $1
	ORDER BY position;
	`)
}

func (db *PostgresUserDB) GetReadArticleIDs(ctx context.Context, userID string) ([]string, error) {
	const op = "storage.postgres.GetReadArticleIDs"
	return db.queryIDs(ctx, op, userID, `
	SELECT article_id
	FROM read_articles
	WHERE user_id = $1
	ORDER BY created_at, article_id;
	`)
}

func (db *PostgresUserDB) GetFavoriteArticleIDs(ctx context.Context, userID string) ([]string, error) {
	const op = "storage.postgres.GetFavoriteArticleIDs"
	return db.queryIDs(ctx, op, userID, `
	SELECT article_id
	FROM favorite_articles
	WHERE user_id = $1
	ORDER BY created_at, article_id;
	`)
}

// UpdatePreferences заменяет предпочтения пользователя в одной транзакции:
// удаление старого списка и вставка нового идут одним батчем.
func (db *PostgresUserDB) UpdatePreferences(ctx context.Context, userID string, preferences []string) (err error) {
	const op = "storage.postgres.UpdatePreferences"
	if err := checkUser(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log := db.log.With(slog.String("op", op), slog.String("user_id", userID))
	preferences = normalize(preferences)
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				log.Error("Failed to rollback transaction", slog.Any("error", rollbackErr))
			}
		}
	}()
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM user_preferences WHERE user_id = $1;`, userID)
	for i, p := range preferences {
		batch.Queue(`
		INSERT INTO user_preferences (user_id, position, preference)
		VALUES ($1, $2, $3);
		`, userID, i, p)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Error("Failed to execute batch", slog.Any("error", err))
		return fmt.Errorf("%s: failed to execute batch: %w", op, err)
	}
	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	log.Info("Preferences updated", slog.Int("count", len(preferences)))
	return nil
}

func (db *PostgresUserDB) MarkRead(ctx context.Context, userID, articleID string) error {
	const op = "storage.postgres.MarkRead"
	return db.insert(ctx, op, userID, articleID, `
	INSERT INTO read_articles (user_id, article_id)
	VALUES ($1, $2)
	ON CONFLICT (user_id, article_id) DO NOTHING;
	`)
}

func (db *PostgresUserDB) MarkFavorite(ctx context.Context, userID, articleID string) error {
	const op = "storage.postgres.MarkFavorite"
	return db.insert(ctx, op, userID, articleID, `
	INSERT INTO favorite_articles (user_id, article_id)
	VALUES ($1, $2)
	ON CONFLICT (user_id, article_id) DO NOTHING;
	`)
}

func (db *PostgresUserDB) queryIDs(ctx context.Context, op, userID, query string) ([]string, error) {
	if err := checkUser(userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log := db.log.With(slog.String("op", op), slog.String("user_id", userID))
	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Successfully retrieved rows", slog.Int("count", len(values)))
	return values, nil
}

func (db *PostgresUserDB) insert(ctx context.Context, op, userID, articleID, query string) error {
	if err := checkUser(userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log := db.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("article_id", articleID),
	)
	tag, err := db.pool.Exec(ctx, query, userID, articleID)
	if err != nil {
		log.Error("Database insert failed", slog.Any("error", err))
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}
	log.Debug("Article marked", slog.Bool("added", tag.RowsAffected() > 0))
	return nil
}
