package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const (
	uniqueViolation = "23505"
	sourcedLinkType = "sourced"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CandidateGateway writes candidates, skills and resumes with pgx. The unique
// index on resumes.content_hash is the last guard against a second candidate
// for the same content.
type CandidateGateway struct {
	pool *pgxpool.Pool
	db   pgxQuerier
	inTx bool
	now  func() time.Time
}

func NewCandidateGateway(pool *pgxpool.Pool) *CandidateGateway {
	return &CandidateGateway{pool: pool, db: pool, now: time.Now}
}

func (g *CandidateGateway) WithinTx(ctx context.Context, fn func(tx domain.PersistenceGateway) error) error {
	if g.inTx {
		return fn(g)
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return domain.NewPersistenceError("begin_tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&CandidateGateway{pool: g.pool, db: tx, inTx: true, now: g.now}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewPersistenceError("commit_tx", err)
	}
	return nil
}

func (g *CandidateGateway) CreateCandidate(ctx context.Context, organizationID string, fields domain.ExtractedFields) (string, error) {
	id := uuid.NewString()
	now := g.now().UTC()

	if _, err := g.db.Exec(ctx, `
INSERT INTO candidates (
  id, user_id, full_name, email, phone, location, current_title, current_company,
  years_of_experience, profile_score, created_at, updated_at
) VALUES ($1, NULL, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
`,
		id,
		fields.FullName,
		nullableText(fields.Email),
		nullableText(fields.Phone),
		nullableText(fields.Location),
		nullableText(fields.CurrentTitle),
		nullableText(fields.CurrentCompany),
		fields.YearsOfExperience,
		fields.QualityScore,
		now,
	); err != nil {
		return "", domain.NewPersistenceError("create_candidate", err)
	}

	if err := g.upsertOrgLink(ctx, id, organizationID, sourcedLinkType); err != nil {
		return "", domain.NewPersistenceError("create_candidate", err)
	}
	return id, nil
}

func (g *CandidateGateway) AttachSkills(ctx context.Context, candidateID string, skills []string) error {
	if len(skills) == 0 {
		return nil
	}

	now := g.now().UTC()
	rows := make([][]any, 0, len(skills))
	for _, skill := range skills {
		rows = append(rows, []any{candidateID, skill, now})
	}

	if _, err := g.db.CopyFrom(
		ctx,
		pgx.Identifier{"candidate_skills"},
		[]string{"candidate_id", "skill_name", "created_at"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return domain.NewPersistenceError("attach_skills", err)
	}
	return nil
}

func (g *CandidateGateway) CreateResume(ctx context.Context, candidateID, contentHash string, meta domain.FileMeta, qualityScore *int) (string, error) {
	id := uuid.NewString()

	var size *int64
	if meta.Size > 0 {
		size = &meta.Size
	}

	_, err := g.db.Exec(ctx, `
INSERT INTO resumes (
  id, candidate_id, file_name, file_url, file_type, file_size, content_hash,
  is_primary, overall_quality_score, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9)
`,
		id,
		candidateID,
		meta.FileName,
		meta.FileURL,
		nullableText(meta.ContentType),
		size,
		contentHash,
		qualityScore,
		g.now().UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("%w: %s", domain.ErrDuplicateContent, domain.ShortHash(contentHash))
		}
		return "", domain.NewPersistenceError("create_resume", err)
	}
	return id, nil
}

func (g *CandidateGateway) FindExistingResumeByHash(ctx context.Context, hash string) (*domain.ExistingResume, error) {
	var existing domain.ExistingResume
	err := g.db.QueryRow(ctx,
		`SELECT id, candidate_id FROM resumes WHERE content_hash = $1 LIMIT 1`, hash,
	).Scan(&existing.ResumeID, &existing.CandidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewPersistenceError("find_existing_resume", err)
	}
	return &existing, nil
}

func (g *CandidateGateway) LinkCandidateToOrganization(ctx context.Context, candidateID, organizationID, linkType string) error {
	if err := g.upsertOrgLink(ctx, candidateID, organizationID, linkType); err != nil {
		return domain.NewPersistenceError("link_candidate", err)
	}
	return nil
}

// upsertOrgLink reactivates an existing link and keeps its original link type.
func (g *CandidateGateway) upsertOrgLink(ctx context.Context, candidateID, organizationID, linkType string) error {
	_, err := g.db.Exec(ctx, `
INSERT INTO candidate_org_links (candidate_id, organization_id, link_type, status, created_at, updated_at)
VALUES ($1, $2, $3, 'active', $4, $4)
ON CONFLICT (candidate_id, organization_id) DO UPDATE
  SET status = 'active',
      updated_at = EXCLUDED.updated_at
`, candidateID, organizationID, linkType, g.now().UTC())
	return err
}
