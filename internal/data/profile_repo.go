package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quizforge/sessiond/internal/data/pgxutil"
	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
)

// ProfileRepo provides database operations for principal profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time
// provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

const profileColumns = `uid, email, display_name, photo_url, role, email_verified, created_at, last_login_at`

// Get returns the profile for a uid, or a NotFound error.
func (r *ProfileRepo) Get(ctx context.Context, uid string) (*domainauth.Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, apperrors.Validation("uid is required")
	}

	var out domainauth.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+profileColumns+`
			FROM profiles
			WHERE uid = $1
		`, uid)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Profile])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// EnsureOnLogin creates the profile with the default user role when absent,
// or touches only last_login_at when present. Existing application fields
// are never overwritten; the upsert is atomic so concurrent first logins
// from two tabs cannot create duplicate rows.
func (r *ProfileRepo) EnsureOnLogin(
	ctx context.Context,
	claims domainauth.TokenClaims,
) (*domainauth.Profile, error) {
	if strings.TrimSpace(claims.UID) == "" {
		return nil, apperrors.Validation("uid is required")
	}

	now := r.timeProvider.Now().UTC()
	var out domainauth.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO profiles (
				uid, email, display_name, photo_url, role, email_verified, created_at, last_login_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $7
			)
			ON CONFLICT (uid) DO UPDATE SET last_login_at = EXCLUDED.last_login_at
			RETURNING `+profileColumns+`
		`,
			claims.UID,
			claims.Email,
			claims.DisplayName,
			claims.PhotoURL,
			domainauth.RoleUser,
			claims.EmailVerified,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Profile])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// SetRole updates the profile's role.
func (r *ProfileRepo) SetRole(ctx context.Context, uid string, role domainauth.Role) error {
	if strings.TrimSpace(uid) == "" {
		return apperrors.Validation("uid is required")
	}
	if role != domainauth.RoleAdmin && role != domainauth.RoleUser {
		return apperrors.Validationf("invalid role %q", role)
	}

	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `UPDATE profiles SET role = $2 WHERE uid = $1`, uid, role)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("profile not found")
		}
		return apperrors.MapDBError(err)
	}
	return nil
}
