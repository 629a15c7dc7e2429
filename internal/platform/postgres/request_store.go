package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/domain"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
	"github.com/phrazzld/skillswap-api/internal/store"
)

const selectRequestColumns = `
	SELECT id, requester_id, recipient_id, teach_skills, learn_skills, status, message, created_at, updated_at
	FROM pairing_requests
`

// PostgresPairingRequestStore implements the store.PairingRequestStore
// interface using a PostgreSQL database as the storage backend.
type PostgresPairingRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPairingRequestStore creates a pairing request store on db.
// If logger is nil, slog.Default is used.
func NewPostgresPairingRequestStore(db store.DBTX, logger *slog.Logger) *PostgresPairingRequestStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPairingRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "pairing_request_store")),
	}
}

var _ store.PairingRequestStore = (*PostgresPairingRequestStore)(nil)

// Create implements store.PairingRequestStore.Create.
func (s *PostgresPairingRequestStore) Create(ctx context.Context, req *domain.PairingRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := req.Validate(); err != nil {
		return err
	}
	teach, err := encodeSkills(req.TeachSkills)
	if err != nil {
		return store.NewStoreError("pairing_request", "create", "failed to encode skills", err)
	}
	learn, err := encodeSkills(req.LearnSkills)
	if err != nil {
		return store.NewStoreError("pairing_request", "create", "failed to encode skills", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pairing_requests
			(id, requester_id, recipient_id, teach_skills, learn_skills, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.RequesterID, req.RecipientID, teach, learn, string(req.Status), req.Message, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Warn("pending request already exists",
				slog.String("requester_id", req.RequesterID.String()),
				slog.String("recipient_id", req.RecipientID.String()))
			return mapped
		}
		log.Error("failed to create pairing request",
			slog.String("error", err.Error()),
			slog.String("request_id", req.ID.String()))
		return store.NewStoreError("pairing_request", "create", "insert failed", mapped)
	}

	log.Debug("pairing request created", slog.String("request_id", req.ID.String()))
	return nil
}

// GetByID implements store.PairingRequestStore.GetByID.
func (s *PostgresPairingRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PairingRequest, error) {
	return s.get(ctx, id, "")
}

// GetByIDForUpdate implements store.PairingRequestStore.GetByIDForUpdate.
func (s *PostgresPairingRequestStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.PairingRequest, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *PostgresPairingRequestStore) get(ctx context.Context, id uuid.UUID, lock string) (*domain.PairingRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	req, err := scanRequest(s.db.QueryRowContext(ctx, selectRequestColumns+` WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRequestNotFound
		}
		log.Error("failed to get pairing request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return nil, store.NewStoreError("pairing_request", "get", "query failed", MapError(err))
	}
	return req, nil
}

// UpdateStatus implements store.PairingRequestStore.UpdateStatus as a
// compare-and-swap on the status column.
func (s *PostgresPairingRequestStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next domain.RequestStatus,
	updatedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE pairing_requests SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(next), updatedAt, id, string(expected))
	if err != nil {
		log.Error("failed to update pairing request status",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return store.NewStoreError("pairing_request", "update_status", "update failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return store.NewStoreError("pairing_request", "update_status", "update failed", err)
	}
	if n == 0 {
		log.Info("pairing request status changed concurrently",
			slog.String("request_id", id.String()),
			slog.String("expected", string(expected)))
		return store.ErrConflict
	}
	return nil
}

// ListForUser implements store.PairingRequestStore.ListForUser.
func (s *PostgresPairingRequestStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.RequestFilter,
) ([]*domain.PairingRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var where string
	switch filter.Role {
	case store.RoleRequester:
		where = `WHERE requester_id = $1`
	case store.RoleRecipient:
		where = `WHERE recipient_id = $1`
	default:
		where = `WHERE (requester_id = $1 OR recipient_id = $1)`
	}
	query := selectRequestColumns + where + ` AND ($2 = '' OR status = $2) ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, userID, string(filter.Status))
	if err != nil {
		log.Error("failed to list pairing requests",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("pairing_request", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	requests := []*domain.PairingRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, store.NewStoreError("pairing_request", "list", "scan failed", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("pairing_request", "list", "row iteration failed", MapError(err))
	}
	return requests, nil
}

func scanRequest(row rowScanner) (*domain.PairingRequest, error) {
	var (
		req          domain.PairingRequest
		teach, learn []byte
		status       string
	)
	err := row.Scan(&req.ID, &req.RequesterID, &req.RecipientID, &teach, &learn,
		&status, &req.Message, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if req.TeachSkills, err = decodeSkills(teach); err != nil {
		return nil, err
	}
	if req.LearnSkills, err = decodeSkills(learn); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return &req, nil
}
