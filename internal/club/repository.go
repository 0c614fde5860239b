package club

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ListFilter is a conjunctive query filter. MemberContributorID is OR'd
// with the public/open/admin visibility clause; AdminID narrows the result
// conjunctively.
type ListFilter struct {
	ProjectID           []string
	ProjectManagementID []string
	Type                string
	MemberContributorID []string
	AdminID             []string
}

// Repository is the persistence contract for clubs. AddMemberToClub is the
// race-free conditional primitive; Save is a plain overwrite with no such
// guarantee. The two must never be unified.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Club, error)
	FindUsingFilter(ctx context.Context, filter ListFilter, requestor *Contributor) ([]*Club, error)
	// FindWellKnown looks up a club by its (scope, type) natural key,
	// ignoring visibility: well-known clubs have predictable identities.
	FindWellKnown(ctx context.Context, clubType string, scope Scope) (*Club, error)
	// FindClubWhereActiveMember returns the club when the contributor is an
	// ACTIVE member of it, nil otherwise.
	FindClubWhereActiveMember(ctx context.Context, clubID, contributorID string) (*Club, error)
	// Create persists a new club. A uniqueness violation on the well-known
	// (scope, type) key is reported as ErrConflict.
	Create(ctx context.Context, club *Club) (*Club, error)
	// Save overwrites the club row and upserts its admins and members.
	Save(ctx context.Context, club *Club) (*Club, error)
	// AddMemberToClub inserts the member in one atomic statement iff the
	// club exists, no record for the contributor exists yet, and — unless
	// fromInvitation — the requestor is an admin or the club is open.
	// Returns nil with no error when any condition fails.
	AddMemberToClub(ctx context.Context, clubID string, member Member, requestor Contributor, fromInvitation bool) (*Club, error)
}

// PostgresRepository handles club data persistence
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new club repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const clubColumns = `id, name, description, type, project_id, project_management_id, open, public, social, created_at`

// FindByID retrieves a club with its members and admins
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Club, error) {
	query := fmt.Sprintf(`SELECT %s FROM clubs WHERE id = $1`, clubColumns)

	club, err := r.scanClub(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}

	if err := r.loadAssociations(ctx, club); err != nil {
		return nil, err
	}
	return club, nil
}

// FindUsingFilter retrieves all clubs matching the filter that are visible
// to the requestor per the public/open/admin OR clause.
func (r *PostgresRepository) FindUsingFilter(ctx context.Context, filter ListFilter, requestor *Contributor) ([]*Club, error) {
	query, args := buildFilterQuery(filter, requestor)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*Club
	for rows.Next() {
		club, err := r.scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		clubs = append(clubs, club)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}

	for _, club := range clubs {
		if err := r.loadAssociations(ctx, club); err != nil {
			return nil, err
		}
	}
	return clubs, nil
}

// FindWellKnown retrieves the club identified by its (scope, type) natural
// key, matching the uniqueness constraint used for provisioning. Returns nil
// when no such club has been materialized.
func (r *PostgresRepository) FindWellKnown(ctx context.Context, clubType string, scope Scope) (*Club, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM clubs
		WHERE type = $1
		  AND COALESCE(project_id, '') = $2
		  AND COALESCE(project_management_id, '') = $3
	`, clubColumns)

	club, err := r.scanClub(r.db.QueryRowContext(ctx, query, clubType, scope.ProjectID, scope.ProjectManagementID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get well-known club: %w", err)
	}

	if err := r.loadAssociations(ctx, club); err != nil {
		return nil, err
	}
	return club, nil
}

// FindClubWhereActiveMember retrieves the club when the contributor has an
// ACTIVE member record in it.
func (r *PostgresRepository) FindClubWhereActiveMember(ctx context.Context, clubID, contributorID string) (*Club, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM clubs c
		WHERE c.id = $1
		  AND EXISTS (
			SELECT 1 FROM club_members m
			WHERE m.club_id = c.id AND m.contributor_id = $2 AND m.status = $3
		  )
	`, qualified(clubColumns, "c"))

	club, err := r.scanClub(r.db.QueryRowContext(ctx, query, clubID, contributorID, MemberStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	if err := r.loadAssociations(ctx, club); err != nil {
		return nil, err
	}
	return club, nil
}

// Create inserts a new club with its admins and members. The partial unique
// index on (scope, type) turns a concurrent duplicate create into
// ErrConflict so the caller can re-fetch instead of erroring out.
func (r *PostgresRepository) Create(ctx context.Context, club *Club) (*Club, error) {
	if club.ID == "" {
		club.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO clubs (id, name, description, type, project_id, project_management_id, open, public, social, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		club.ID,
		club.Name,
		nullable(club.Description),
		club.Type,
		nullable(club.ProjectID),
		nullable(club.ProjectManagementID),
		club.Open,
		club.Public,
		club.Social,
		club.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: type %s", ErrConflict, club.Type)
		}
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	if err := upsertAssociations(ctx, tx, club); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit club creation: %w", err)
	}
	return club, nil
}

// Save overwrites the club row and upserts admins and members. This is a
// plain read-modify-write: concurrent saves on the same club may lose
// updates, which is accepted for low-contention admin patches.
func (r *PostgresRepository) Save(ctx context.Context, club *Club) (*Club, error) {
	if club.ID == "" {
		return r.Create(ctx, club)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE clubs
		SET name = $2, description = $3, open = $4, public = $5, social = $6
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query,
		club.ID,
		club.Name,
		nullable(club.Description),
		club.Open,
		club.Public,
		club.Social,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save club: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, club.ID)
	}

	if err := upsertAssociations(ctx, tx, club); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit club save: %w", err)
	}
	return club, nil
}

// AddMemberToClub performs the conditional atomic add as a single
// INSERT ... SELECT statement so two concurrent attempts for the same
// contributor can never both succeed.
func (r *PostgresRepository) AddMemberToClub(ctx context.Context, clubID string, member Member, requestor Contributor, fromInvitation bool) (*Club, error) {
	data, privateData, err := marshalMemberData(member)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO club_members (club_id, contributor_id, roles, data, private_data, status)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (
			SELECT 1 FROM clubs c
			WHERE c.id = $1
			  AND ($7
			       OR c.open
			       OR EXISTS (
			         SELECT 1 FROM club_admins a
			         WHERE a.club_id = c.id AND a.contributor_id = $8
			       ))
		)
		AND NOT EXISTS (
			SELECT 1 FROM club_members m
			WHERE m.club_id = $1 AND m.contributor_id = $2
		)
		ON CONFLICT (club_id, contributor_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		clubID,
		member.ContributorID,
		pq.Array(member.Roles),
		data,
		privateData,
		member.Status,
		fromInvitation,
		requestor.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.FindByID(ctx, clubID)
}

// --- row mapping helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresRepository) scanClub(row rowScanner) (*Club, error) {
	club := &Club{
		Members: make(map[string]*Member),
		Admins:  make(map[string]Contributor),
	}
	var description, projectID, projectManagementID sql.NullString
	err := row.Scan(
		&club.ID,
		&club.Name,
		&description,
		&club.Type,
		&projectID,
		&projectManagementID,
		&club.Open,
		&club.Public,
		&club.Social,
		&club.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	club.Description = description.String
	club.ProjectID = projectID.String
	club.ProjectManagementID = projectManagementID.String
	return club, nil
}

func (r *PostgresRepository) loadAssociations(ctx context.Context, club *Club) error {
	adminQuery := `SELECT contributor_id, email FROM club_admins WHERE club_id = $1`
	rows, err := r.db.QueryContext(ctx, adminQuery, club.ID)
	if err != nil {
		return fmt.Errorf("failed to get admins: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var admin Contributor
		var email sql.NullString
		if err := rows.Scan(&admin.ID, &email); err != nil {
			return fmt.Errorf("failed to scan admin: %w", err)
		}
		admin.Email = email.String
		club.Admins[admin.ID] = admin
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to get admins: %w", err)
	}

	memberQuery := `SELECT contributor_id, roles, data, private_data, status FROM club_members WHERE club_id = $1`
	memberRows, err := r.db.QueryContext(ctx, memberQuery, club.ID)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		member := &Member{}
		var data, privateData []byte
		if err := memberRows.Scan(
			&member.ContributorID,
			pq.Array(&member.Roles),
			&data,
			&privateData,
			&member.Status,
		); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &member.Data); err != nil {
				return fmt.Errorf("failed to decode member data: %w", err)
			}
		}
		if len(privateData) > 0 {
			if err := json.Unmarshal(privateData, &member.PrivateData); err != nil {
				return fmt.Errorf("failed to decode member private data: %w", err)
			}
		}
		club.Members[member.ContributorID] = member
	}
	if err := memberRows.Err(); err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	return nil
}

func upsertAssociations(ctx context.Context, tx *sql.Tx, club *Club) error {
	adminQuery := `
		INSERT INTO club_admins (club_id, contributor_id, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (club_id, contributor_id) DO UPDATE SET email = EXCLUDED.email
	`
	for _, admin := range club.Admins {
		if _, err := tx.ExecContext(ctx, adminQuery, club.ID, admin.ID, nullable(admin.Email)); err != nil {
			return fmt.Errorf("failed to upsert admin: %w", err)
		}
	}

	memberQuery := `
		INSERT INTO club_members (club_id, contributor_id, roles, data, private_data, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (club_id, contributor_id) DO UPDATE
		SET roles = EXCLUDED.roles,
		    data = EXCLUDED.data,
		    private_data = EXCLUDED.private_data,
		    status = EXCLUDED.status
	`
	for _, member := range club.Members {
		data, privateData, err := marshalMemberData(*member)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, memberQuery,
			club.ID,
			member.ContributorID,
			pq.Array(member.Roles),
			data,
			privateData,
			member.Status,
		); err != nil {
			return fmt.Errorf("failed to upsert member: %w", err)
		}
	}
	return nil
}

func marshalMemberData(member Member) ([]byte, []byte, error) {
	data, err := json.Marshal(orEmpty(member.Data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode member data: %w", err)
	}
	privateData, err := json.Marshal(orEmpty(member.PrivateData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode member private data: %w", err)
	}
	return data, privateData, nil
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// buildFilterQuery assembles the filtered list query. The requestor-admin,
// open, public and member-filter conditions form one OR group; everything
// else is conjunctive.
func buildFilterQuery(filter ListFilter, requestor *Contributor) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.ProjectID) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.project_id = ANY(%s)", arg(pq.Array(filter.ProjectID))))
	}
	if len(filter.ProjectManagementID) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.project_management_id = ANY(%s)", arg(pq.Array(filter.ProjectManagementID))))
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("c.type = %s", arg(filter.Type)))
	}

	visibility := []string{"c.open", "c.public"}
	if requestor != nil {
		visibility = append(visibility, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM club_admins a WHERE a.club_id = c.id AND a.contributor_id = %s)",
			arg(requestor.ID)))
	}
	if len(filter.MemberContributorID) > 0 {
		visibility = append(visibility, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM club_members m WHERE m.club_id = c.id AND m.contributor_id = ANY(%s))",
			arg(pq.Array(filter.MemberContributorID))))
	}
	conditions = append(conditions, "("+strings.Join(visibility, " OR ")+")")

	if len(filter.AdminID) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM club_admins a WHERE a.club_id = c.id AND a.contributor_id = ANY(%s))",
			arg(pq.Array(filter.AdminID))))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM clubs c
		WHERE %s
		ORDER BY c.created_at
	`, qualified(clubColumns, "c"), strings.Join(conditions, " AND "))
	return query, args
}

func qualified(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
