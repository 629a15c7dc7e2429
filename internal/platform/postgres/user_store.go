package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
	"github.com/phrazzld/skillswap-api/internal/store"
)

// Skill kinds stored in user_skills.kind.
const (
	skillKindTeach = "teach"
	skillKindLearn = "learn"
)

const selectUserColumns = `
	SELECT u.id, u.display_name, u.bio, u.created_at, u.updated_at,
		COALESCE((SELECT jsonb_agg(s.skill ORDER BY s.skill) FROM user_skills s
			WHERE s.user_id = u.id AND s.kind = 'teach'), '[]'::jsonb),
		COALESCE((SELECT jsonb_agg(s.skill ORDER BY s.skill) FROM user_skills s
			WHERE s.user_id = u.id AND s.kind = 'learn'), '[]'::jsonb)
	FROM users u
`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a user store on db, which may be a
// connection pool or a transaction. If logger is nil, slog.Default is used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// Upsert implements store.UserStore.Upsert. The profile row and the skill
// rows are written with separate statements, so callers run it inside a
// transaction.
func (s *PostgresUserStore) Upsert(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, display_name, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name, bio = EXCLUDED.bio, updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`, user.ID, user.DisplayName, user.Bio, user.CreatedAt, user.UpdatedAt).Scan(&user.CreatedAt)
	if err != nil {
		log.Error("failed to upsert user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "upsert", "failed to write profile", MapError(err))
	}
	user.CreatedAt = user.CreatedAt.UTC()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_skills WHERE user_id = $1`, user.ID); err != nil {
		log.Error("failed to clear user skills",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "upsert", "failed to clear skills", MapError(err))
	}

	kinds := []struct {
		name   string
		skills domain.SkillSet
	}{
		{skillKindTeach, user.TeachSkills},
		{skillKindLearn, user.LearnSkills},
	}
	for _, k := range kinds {
		if len(k.skills) == 0 {
			continue
		}
		payload, err := encodeSkills(k.skills)
		if err != nil {
			return store.NewStoreError("user", "upsert", "failed to encode skills", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO user_skills (user_id, kind, skill)
			SELECT $1, $2, jsonb_array_elements_text($3::jsonb)
		`, user.ID, k.name, payload)
		if err != nil {
			log.Error("failed to insert user skills",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()),
				slog.String("kind", k.name))
			return store.NewStoreError("user", "upsert", "failed to write skills", MapError(err))
		}
	}

	log.Debug("user upserted",
		slog.String("user_id", user.ID.String()),
		slog.Int("teach_skills", len(user.TeachSkills)),
		slog.Int("learn_skills", len(user.LearnSkills)))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := scanUser(s.db.QueryRowContext(ctx, selectUserColumns+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}
	return user, nil
}

// List implements store.UserStore.List.
func (s *PostgresUserStore) List(ctx context.Context) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, selectUserColumns+` ORDER BY u.id`)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, store.NewStoreError("user", "list", "scan failed", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("user", "list", "row iteration failed", MapError(err))
	}
	return users, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user         domain.User
		teach, learn []byte
	)
	if err := row.Scan(&user.ID, &user.DisplayName, &user.Bio, &user.CreatedAt, &user.UpdatedAt, &teach, &learn); err != nil {
		return nil, err
	}

	var err error
	if user.TeachSkills, err = decodeSkills(teach); err != nil {
		return nil, err
	}
	if user.LearnSkills, err = decodeSkills(learn); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

// decodeSkills parses a JSON array of skills into a SkillSet in Go sort order.
func decodeSkills(raw []byte) (domain.SkillSet, error) {
	var skills []string
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills: %w", err)
	}
	return domain.NewSkillSet(skills...)
}

func encodeSkills(skills domain.SkillSet) ([]byte, error) {
	if skills == nil {
		skills = domain.SkillSet{}
	}
	return json.Marshal(skills)
}
