package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true: if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across posts and comments using
// plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	// Posts sub-query
	if q.FilterType == "" || q.FilterType == ResultPost {
		postWhere := "p.search_tsv @@ " + tsQuery
		if q.FilterClientID != "" {
			postWhere += fmt.Sprintf(" AND p.client_id = $%d", argN)
			args = append(args, q.FilterClientID)
			argN++
		}
		if q.IsClient {
			postWhere += " AND p.visible_to_client"
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'post'::text AS type, p.id, p.title,
				ts_headline('english', coalesce(p.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				p.id AS post_id, p.client_id,
				p.status, ''::text AS scope, p.visible_to_client,
				ts_rank(p.search_tsv, %s) AS rank
			FROM posts p
			WHERE %s`, tsQuery, tsQuery, postWhere))
	}

	// Comments sub-query
	if q.FilterType == "" || q.FilterType == ResultComment {
		commentWhere := "c.search_tsv @@ " + tsQuery
		if q.FilterClientID != "" {
			commentWhere += fmt.Sprintf(" AND p.client_id = $%d", argN)
			args = append(args, q.FilterClientID)
			argN++
		}
		if q.IsClient {
			commentWhere += " AND p.visible_to_client AND c.scope = 'client'"
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'comment'::text AS type, c.id, c.author_name AS title,
				ts_headline('english', coalesce(c.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				c.post_id, p.client_id,
				''::text AS status, c.scope, p.visible_to_client,
				ts_rank(c.search_tsv, %s) AS rank
			FROM comments c
			JOIN posts p ON p.id = c.post_id
			WHERE %s`, tsQuery, tsQuery, commentWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	// Count query
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	// Data query
	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, post_id, client_id, status, scope, visible_to_client
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.PostID, &r.ClientID, &r.Status, &r.Scope, &r.VisibleToClient); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PostRecord, []CommentRecord, error) {
	postRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, body, client_id, status, visible_to_client
		FROM posts
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	defer postRows.Close()

	posts := make([]PostRecord, 0)
	for postRows.Next() {
		var rec PostRecord
		if err := postRows.Scan(&rec.ID, &rec.Title, &rec.Body, &rec.ClientID, &rec.Status, &rec.VisibleToClient); err != nil {
			return nil, nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, rec)
	}
	if err := postRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate posts: %w", err)
	}

	commentRows, err := p.db.QueryContext(ctx, `
		SELECT c.id, c.body, c.author_name, c.post_id, p.client_id, c.scope, p.visible_to_client
		FROM comments c
		JOIN posts p ON p.id = c.post_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load comments: %w", err)
	}
	defer commentRows.Close()

	comments := make([]CommentRecord, 0)
	for commentRows.Next() {
		var rec CommentRecord
		if err := commentRows.Scan(&rec.ID, &rec.Body, &rec.AuthorName, &rec.PostID, &rec.ClientID, &rec.Scope, &rec.VisibleToClient); err != nil {
			return nil, nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, rec)
	}
	if err := commentRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate comments: %w", err)
	}

	return posts, comments, nil
}
