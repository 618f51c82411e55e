package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const teamMemberColumns = `id, email, display_name, COALESCE(password_hash, ''), role, status, COALESCE(client_id, ''), is_email_verified, COALESCE(verification_token, ''), verification_expires_at, created_at, updated_at`

func scanTeamMember(row *sql.Row) (TeamMember, error) {
	var m TeamMember
	err := row.Scan(
		&m.ID,
		&m.Email,
		&m.DisplayName,
		&m.PasswordHash,
		&m.Role,
		&m.Status,
		&m.ClientID,
		&m.IsEmailVerified,
		&m.VerificationToken,
		&m.VerificationExpiresAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return TeamMember{}, err
	}
	return m, nil
}

func (s *PostgresStore) CreateTeamMember(ctx context.Context, m TeamMember) error {
	status := m.Status
	if status == "" {
		status = MemberActive
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (id, email, display_name, password_hash, role, status, client_id, is_email_verified, verification_token, verification_expires_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10)
	`, m.ID, m.Email, m.DisplayName, m.PasswordHash, m.Role, status, m.ClientID, m.IsEmailVerified, m.VerificationToken, m.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("create team member: %w", err)
	}
	return nil
}

func (s *PostgresStore) TeamMemberByID(ctx context.Context, memberID string) (TeamMember, error) {
	return scanTeamMember(s.db.QueryRowContext(ctx,
		`SELECT `+teamMemberColumns+` FROM team_members WHERE id=$1`, memberID))
}

func (s *PostgresStore) TeamMemberByEmail(ctx context.Context, email string) (TeamMember, error) {
	return scanTeamMember(s.db.QueryRowContext(ctx,
		`SELECT `+teamMemberColumns+` FROM team_members WHERE LOWER(email)=LOWER($1)`, email))
}

func (s *PostgresStore) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+teamMemberColumns+` FROM team_members ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	items := make([]TeamMember, 0)
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(
			&m.ID,
			&m.Email,
			&m.DisplayName,
			&m.PasswordHash,
			&m.Role,
			&m.Status,
			&m.ClientID,
			&m.IsEmailVerified,
			&m.VerificationToken,
			&m.VerificationExpiresAt,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateTeamMemberRole(ctx context.Context, memberID, role, clientID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE team_members
		SET role=$2, client_id=NULLIF($3, ''), updated_at=NOW()
		WHERE id=$1
	`, memberID, role, clientID)
	if err != nil {
		return fmt.Errorf("update team member role: %w", err)
	}
	return nil
}

// SetTeamMemberStatus is the soft delete: rows never leave the table.
func (s *PostgresStore) SetTeamMemberStatus(ctx context.Context, memberID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE team_members SET status=$2, updated_at=NOW() WHERE id=$1
	`, memberID, status)
	if err != nil {
		return fmt.Errorf("set team member status: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateMemberVerificationToken(ctx context.Context, memberID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE team_members
		SET verification_token=$2, verification_expires_at=$3, updated_at=NOW()
		WHERE id=$1
	`, memberID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyMemberEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE team_members
		SET is_email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify member email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify member email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateMemberPassword(ctx context.Context, memberID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE team_members SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, memberID, passwordHash)
	if err != nil {
		return fmt.Errorf("update member password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, memberID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, member_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, memberID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var memberID string
	err := s.db.QueryRowContext(ctx, `
		SELECT member_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&memberID)
	if err != nil {
		return "", err
	}
	return memberID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, memberID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, member_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET member_id=EXCLUDED.member_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, memberID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (TeamMember, error) {
	const query = `
		SELECT tm.id, tm.email, tm.display_name, COALESCE(tm.password_hash, ''), tm.role, tm.status, COALESCE(tm.client_id, ''), tm.is_email_verified, COALESCE(tm.verification_token, ''), tm.verification_expires_at, tm.created_at, tm.updated_at
		FROM refresh_sessions rs
		JOIN team_members tm ON tm.id = rs.member_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	return scanTeamMember(s.db.QueryRowContext(ctx, query, tokenHash))
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

func (s *PostgresStore) InsertClient(ctx context.Context, client Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, slug, brand_color, contact_email)
		VALUES ($1, $2, $3, $4, $5)
	`, client.ID, client.Name, client.Slug, client.BrandColor, client.ContactEmail)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (Client, error) {
	var item Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(brand_color, ''), COALESCE(contact_email, ''), created_at, updated_at
		FROM clients WHERE id=$1
	`, clientID).Scan(&item.ID, &item.Name, &item.Slug, &item.BrandColor, &item.ContactEmail, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Client{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, COALESCE(brand_color, ''), COALESCE(contact_email, ''), created_at, updated_at
		FROM clients ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		var item Client
		if err := rows.Scan(&item.ID, &item.Name, &item.Slug, &item.BrandColor, &item.ContactEmail, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return items, nil
}

const postColumns = `id, client_id, title, body, status, locked, visible_to_client, awaiting_client_approval, publish_date, created_by_name, created_at, updated_at`

func (s *PostgresStore) InsertPost(ctx context.Context, post Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, client_id, title, body, status, locked, visible_to_client, awaiting_client_approval, publish_date, created_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, post.ID, post.ClientID, post.Title, post.Body, post.Status, post.Locked, post.VisibleToClient, post.AwaitingClientApproval, post.PublishDate, post.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func scanPost(row *sql.Row) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.Title,
		&p.Body,
		&p.Status,
		&p.Locked,
		&p.VisibleToClient,
		&p.AwaitingClientApproval,
		&p.PublishDate,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, postID string) (Post, error) {
	return scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id=$1`, postID))
}

// ListPosts returns posts for one client or, with an empty clientID, every
// client. visibleOnly narrows to client-visible posts for client viewers.
func (s *PostgresStore) ListPosts(ctx context.Context, clientID string, visibleOnly bool) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE ($1='' OR client_id=$1)
		  AND (NOT $2::boolean OR visible_to_client)
		ORDER BY publish_date ASC NULLS LAST, created_at DESC
	`, clientID, visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.ID,
			&p.ClientID,
			&p.Title,
			&p.Body,
			&p.Status,
			&p.Locked,
			&p.VisibleToClient,
			&p.AwaitingClientApproval,
			&p.PublishDate,
			&p.CreatedBy,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}

// TransitionPost commits a status change as a conditional update guarded by
// the previously read status. The derived flags are written in the same
// statement, so either everything lands or nothing does. A false return
// means the guard did not match: the caller re-reads to tell a concurrent
// writer from a missing row.
func (s *PostgresStore) TransitionPost(ctx context.Context, postID, fromStatus, toStatus string, visibleToClient, awaitingClientApproval, locked bool) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET status=$3, visible_to_client=$4, awaiting_client_approval=$5, locked=$6, updated_at=NOW()
		WHERE id=$1 AND status=$2
	`, postID, fromStatus, toStatus, visibleToClient, awaitingClientApproval, locked)
	if err != nil {
		return false, fmt.Errorf("transition post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition post rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) UpdatePublishDate(ctx context.Context, postID string, publishDate *time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts SET publish_date=$2, updated_at=NOW() WHERE id=$1
	`, postID, publishDate)
	if err != nil {
		return fmt.Errorf("update publish date: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update publish date rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdatePostContent(ctx context.Context, postID, title, body string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts SET title=$2, body=$3, updated_at=NOW() WHERE id=$1
	`, postID, title, body)
	if err != nil {
		return fmt.Errorf("update post content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post content rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecomputeFlagsForStatus aligns derived flags with the lifecycle table for
// every post in one status bucket. It never touches status itself, and only
// rows whose flags actually disagree are updated, so a second run reports
// zero rows.
func (s *PostgresStore) RecomputeFlagsForStatus(ctx context.Context, status string, visibleToClient, awaitingClientApproval, locked bool) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET visible_to_client=$2, awaiting_client_approval=$3, locked=$4, updated_at=NOW()
		WHERE status=$1
		  AND (visible_to_client IS DISTINCT FROM $2
		    OR awaiting_client_approval IS DISTINCT FROM $3
		    OR locked IS DISTINCT FROM $4)
	`, status, visibleToClient, awaitingClientApproval, locked)
	if err != nil {
		return 0, fmt.Errorf("recompute flags for %s: %w", status, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recompute flag rows for %s: %w", status, err)
	}
	return affected, nil
}

func (s *PostgresStore) CountPostsByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM posts GROUP BY status ORDER BY status ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	defer rows.Close()

	items := make([]StatusCount, 0)
	for rows.Next() {
		var item StatusCount
		if err := rows.Scan(&item.Status, &item.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, author_name, scope, body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, comment.ID, comment.PostID, comment.AuthorID, comment.AuthorName, comment.Scope, comment.Body)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns every comment for the post, newest first. Scope and
// visibility filtering for the viewer happens in the collab package.
func (s *PostgresStore) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, author_id, author_name, scope, body, created_at
		FROM comments
		WHERE post_id=$1
		ORDER BY created_at DESC, id DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		var item Comment
		if err := rows.Scan(&item.ID, &item.PostID, &item.AuthorID, &item.AuthorName, &item.Scope, &item.Body, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertApproval(ctx context.Context, approval Approval) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approvals (post_id, actor_id, actor_name, decision, note)
		VALUES ($1, $2, $3, $4, $5)
	`, approval.PostID, approval.ActorID, approval.ActorName, approval.Decision, approval.Note)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListApprovals(ctx context.Context, postID string) ([]Approval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, actor_id, actor_name, decision, COALESCE(note, ''), created_at
		FROM approvals
		WHERE post_id=$1
		ORDER BY created_at DESC, id DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	items := make([]Approval, 0)
	for rows.Next() {
		var item Approval
		if err := rows.Scan(&item.ID, &item.PostID, &item.ActorID, &item.ActorName, &item.Decision, &item.Note, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvals: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertPostPlatform(ctx context.Context, platform PostPlatform) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_platforms (id, post_id, platform, account_handle)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, platform, account_handle) DO NOTHING
	`, platform.ID, platform.PostID, platform.Platform, platform.AccountHandle)
	if err != nil {
		return fmt.Errorf("insert post platform: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPostPlatforms(ctx context.Context, postID string) ([]PostPlatform, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, platform, COALESCE(account_handle, ''), created_at
		FROM post_platforms
		WHERE post_id=$1
		ORDER BY platform ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post platforms: %w", err)
	}
	defer rows.Close()

	items := make([]PostPlatform, 0)
	for rows.Next() {
		var item PostPlatform
		if err := rows.Scan(&item.ID, &item.PostID, &item.Platform, &item.AccountHandle, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post platform: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post platforms: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertMediaAsset(ctx context.Context, asset MediaAsset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_assets (id, post_id, object_key, file_name, content_type, size_bytes, uploaded_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, asset.ID, asset.PostID, asset.ObjectKey, asset.FileName, asset.ContentType, asset.SizeBytes, asset.UploadedBy)
	if err != nil {
		return fmt.Errorf("insert media asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMediaAssets(ctx context.Context, postID string) ([]MediaAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, object_key, file_name, content_type, size_bytes, uploaded_by_name, created_at
		FROM media_assets
		WHERE post_id=$1
		ORDER BY created_at DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}
	defer rows.Close()

	items := make([]MediaAsset, 0)
	for rows.Next() {
		var item MediaAsset
		if err := rows.Scan(&item.ID, &item.PostID, &item.ObjectKey, &item.FileName, &item.ContentType, &item.SizeBytes, &item.UploadedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media asset: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media assets: %w", err)
	}
	return items, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
