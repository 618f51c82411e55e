package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"cadence/api/internal/auth"
	"cadence/api/internal/authpw"
	"cadence/api/internal/collab"
	"cadence/api/internal/config"
	"cadence/api/internal/email"
	"cadence/api/internal/events"
	"cadence/api/internal/lifecycle"
	"cadence/api/internal/media"
	"cadence/api/internal/rbac"
	"cadence/api/internal/search"
	"cadence/api/internal/store"
	"cadence/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	MemberID     string
	MemberName   string
	Role         string
	ClientID     string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	CreateTeamMember(context.Context, store.TeamMember) error
	TeamMemberByID(context.Context, string) (store.TeamMember, error)
	TeamMemberByEmail(context.Context, string) (store.TeamMember, error)
	ListTeamMembers(context.Context) ([]store.TeamMember, error)
	UpdateTeamMemberRole(context.Context, string, string, string) error
	SetTeamMemberStatus(context.Context, string, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.TeamMember, error)
	RevokeRefreshSession(context.Context, string) error
	InsertClient(context.Context, store.Client) error
	GetClient(context.Context, string) (store.Client, error)
	ListClients(context.Context) ([]store.Client, error)
	InsertPost(context.Context, store.Post) error
	GetPost(context.Context, string) (store.Post, error)
	ListPosts(context.Context, string, bool) ([]store.Post, error)
	TransitionPost(context.Context, string, string, string, bool, bool, bool) (bool, error)
	UpdatePublishDate(context.Context, string, *time.Time) error
	UpdatePostContent(context.Context, string, string, string) error
	RecomputeFlagsForStatus(context.Context, string, bool, bool, bool) (int64, error)
	CountPostsByStatus(context.Context) ([]store.StatusCount, error)
	InsertComment(context.Context, store.Comment) error
	ListComments(context.Context, string) ([]store.Comment, error)
	InsertApproval(context.Context, store.Approval) error
	ListApprovals(context.Context, string) ([]store.Approval, error)
	InsertPostPlatform(context.Context, store.PostPlatform) error
	ListPostPlatforms(context.Context, string) ([]store.PostPlatform, error)
	InsertMediaAsset(context.Context, store.MediaAsset) error
	ListMediaAssets(context.Context, string) ([]store.MediaAsset, error)
	Ping(ctx context.Context) error
}

// sessionStore holds refresh tokens. Redis in production, Postgres when
// Redis is not configured.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, member store.TeamMember, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.TeamMember, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// pgSessions adapts the relational store to the sessionStore interface.
type pgSessions struct {
	store dataStore
}

func (p pgSessions) SaveRefreshSession(ctx context.Context, tokenHash string, member store.TeamMember, expiresAt time.Time) error {
	return p.store.SaveRefreshSession(ctx, tokenHash, member.ID, expiresAt)
}

func (p pgSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.TeamMember, error) {
	return p.store.LookupRefreshSession(ctx, tokenHash)
}

func (p pgSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return p.store.RevokeRefreshSession(ctx, tokenHash)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	authpw   *authpw.Service
	email    *email.Service
	search   *search.Service
	events   *events.Publisher
	media    *media.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore) *Service {
	s := &Service{cfg: cfg, store: dataStore}
	s.sessions = pgSessions{store: dataStore}
	return s
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore) *Service {
	s := New(cfg, dataStore)
	s.sessions = sessions
	return s
}

func (s *Service) SetAuthPassword(svc *authpw.Service) { s.authpw = svc }
func (s *Service) SetEmail(svc *email.Service)         { s.email = svc }
func (s *Service) SetSearch(svc *search.Service)       { s.search = svc }
func (s *Service) SetEvents(pub *events.Publisher)     { s.events = pub }

func (s *Service) AuthPasswordService() *authpw.Service { return s.authpw }

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Sessions ---

func (s *Service) CreateSession(ctx context.Context, memberID string) (Session, error) {
	member, err := s.store.TeamMemberByID(ctx, memberID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, member)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	member, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// Re-read so a role change or deactivation since issuance takes effect
	fresh, err := s.store.TeamMemberByID(ctx, member.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, fresh)
}

func (s *Service) issueSession(ctx context.Context, member store.TeamMember) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:      member.ID,
		Name:     member.DisplayName,
		Role:     member.Role,
		ClientID: member.ClientID,
		JTI:      jti,
		Exp:      expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), member, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		MemberID:     member.ID,
		MemberName:   member.DisplayName,
		Role:         member.Role,
		ClientID:     member.ClientID,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	// Role and client scope come from the current row, not the token
	member, err := s.store.TeamMemberByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}

	return Session{
		Token:      token,
		MemberID:   member.ID,
		MemberName: member.DisplayName,
		Role:       member.Role,
		ClientID:   member.ClientID,
		JTI:        claims.JTI,
		ExpiresAt:  time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// resolveActor reads the team-member row fresh for every call. A token that
// outlives its member resolves to Unauthenticated; a deactivated member
// resolves to an inactive actor that every guarded action rejects.
func (s *Service) resolveActor(ctx context.Context, memberID string) (rbac.Actor, error) {
	if strings.TrimSpace(memberID) == "" {
		return rbac.Actor{}, domainError(http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthenticated", nil)
	}
	member, err := s.store.TeamMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rbac.Actor{}, domainError(http.StatusUnauthorized, "NO_TEAM_MEMBERSHIP", "No team membership for actor", nil)
		}
		return rbac.Actor{}, err
	}
	return rbac.Actor{
		ID:       member.ID,
		Name:     member.DisplayName,
		Role:     rbac.Role(member.Role),
		ClientID: member.ClientID,
		Active:   member.Status == store.MemberActive,
	}, nil
}

// guardPost loads the post and runs the access guard against it. The post
// is returned so callers authorize and act on the same freshly read row.
func (s *Service) guardPost(ctx context.Context, actor rbac.Actor, postID string, action rbac.Action) (store.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.Post{}, err
	}
	if err := rbac.Authorize(actor, rbac.Post{ClientID: post.ClientID, Locked: post.Locked}, action); err != nil {
		return store.Post{}, err
	}
	if actor.Role == rbac.RoleClient && !post.VisibleToClient && action == rbac.ActionView {
		// Hidden posts do not exist for client viewers
		return store.Post{}, sql.ErrNoRows
	}
	return post, nil
}

// --- Posts ---

type CreatePostInput struct {
	ClientID    string     `json:"clientId"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	PublishDate *time.Time `json:"publishDate"`
}

func (s *Service) CreatePost(ctx context.Context, actorID string, input CreatePostInput) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, rbac.ErrInactiveAccount
	}
	if actor.Role == rbac.RoleClient {
		return nil, rbac.ErrRoleForbidden
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientId is required", nil)
	}
	if _, err := s.store.GetClient(ctx, input.ClientID); err != nil {
		return nil, err
	}

	flags, _ := lifecycle.FlagsFor(lifecycle.StatusDraft)
	post := store.Post{
		ID:                     util.NewID("post"),
		ClientID:               input.ClientID,
		Title:                  title,
		Body:                   input.Body,
		Status:                 string(lifecycle.StatusDraft),
		Locked:                 flags.Locked,
		VisibleToClient:        flags.VisibleToClient,
		AwaitingClientApproval: flags.AwaitingClientApproval,
		PublishDate:            input.PublishDate,
		CreatedBy:              actor.ID,
	}
	if err := s.store.InsertPost(ctx, post); err != nil {
		return nil, err
	}
	s.indexPost(post)
	return postPayload(post), nil
}

func (s *Service) GetPost(ctx context.Context, actorID, postID string) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.guardPost(ctx, actor, postID, rbac.ActionView)
	if err != nil {
		return nil, err
	}
	return postPayload(post), nil
}

func (s *Service) ListPosts(ctx context.Context, actorID, clientID string) ([]map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, rbac.ErrInactiveAccount
	}

	visibleOnly := false
	if actor.Role == rbac.RoleClient {
		// Client viewers are pinned to their own tenant and to exposed posts
		clientID = actor.ClientID
		visibleOnly = true
	}

	posts, err := s.store.ListPosts(ctx, clientID, visibleOnly)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(posts))
	for _, post := range posts {
		items = append(items, postPayload(post))
	}
	return items, nil
}

func (s *Service) UpdatePublishDate(ctx context.Context, actorID, postID string, publishDate *time.Time) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guardPost(ctx, actor, postID, rbac.ActionEditDate); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePublishDate(ctx, postID, publishDate); err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return postPayload(post), nil
}

type UpdatePostContentInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Service) UpdatePostContent(ctx context.Context, actorID, postID string, input UpdatePostContentInput) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guardPost(ctx, actor, postID, rbac.ActionEditContent); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := s.store.UpdatePostContent(ctx, postID, title, input.Body); err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.indexPost(post)
	return postPayload(post), nil
}

// ChangeStatus runs the full transition pipeline: fresh actor, fresh post,
// access guard, edge plan, then a compare-and-set commit guarded by the
// status we authorized against. A lost race surfaces as Conflict, never as a
// silent overwrite.
func (s *Service) ChangeStatus(ctx context.Context, actorID, postID, target string) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.guardPost(ctx, actor, postID, rbac.ActionChangeStatus)
	if err != nil {
		return nil, err
	}

	plan, err := lifecycle.Plan(actor.Role, lifecycle.Status(post.Status), lifecycle.Status(target))
	if err != nil {
		return nil, err
	}
	if plan.NoOp {
		payload := postPayload(post)
		payload["noOp"] = true
		return payload, nil
	}

	changed, err := s.store.TransitionPost(ctx, postID,
		string(plan.From), string(plan.To),
		plan.Flags.VisibleToClient, plan.Flags.AwaitingClientApproval, plan.Flags.Locked)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Zero rows: either the post vanished or a concurrent writer moved
		// it off the status we read. Re-read to tell the two apart.
		if _, err := s.store.GetPost(ctx, postID); err != nil {
			return nil, err
		}
		return nil, domainError(http.StatusConflict, "CONFLICT", "Post status changed concurrently, re-read and retry", nil)
	}

	updated, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	s.indexPost(updated)
	s.emitTransition(ctx, updated, string(plan.From), string(plan.To), actor)
	if plan.To == lifecycle.StatusClientReview {
		s.notifyClientReview(ctx, updated)
	}

	return postPayload(updated), nil
}

// RecomputeVisibility walks every status bucket and rewrites derived flags
// from the same entry-effect table transitions use. Running it twice in a
// row touches zero rows the second time; it never changes any status.
func (s *Service) RecomputeVisibility(ctx context.Context, actorID string) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, rbac.ErrInactiveAccount
	}
	if actor.Role != rbac.RoleAdmin {
		return nil, rbac.ErrRoleForbidden
	}

	touched := make(map[string]any, 5)
	var total int64
	for _, status := range lifecycle.Statuses() {
		flags, err := lifecycle.FlagsFor(status)
		if err != nil {
			return nil, err
		}
		count, err := s.store.RecomputeFlagsForStatus(ctx, string(status),
			flags.VisibleToClient, flags.AwaitingClientApproval, flags.Locked)
		if err != nil {
			return nil, err
		}
		touched[string(status)] = count
		total += count
	}
	return map[string]any{"touched": touched, "total": total}, nil
}

func (s *Service) StatusSummary(ctx context.Context, actorID string) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, rbac.ErrInactiveAccount
	}
	if actor.Role == rbac.RoleClient {
		return nil, rbac.ErrRoleForbidden
	}
	counts, err := s.store.CountPostsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string]any, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	return map[string]any{"posts": byStatus}, nil
}

// --- Side effects after a committed transition ---

func (s *Service) indexPost(post store.Post) {
	if s.search == nil {
		return
	}
	s.search.IndexPost(search.PostRecord{
		ID:              post.ID,
		Title:           post.Title,
		Body:            post.Body,
		ClientID:        post.ClientID,
		Status:          post.Status,
		VisibleToClient: post.VisibleToClient,
	})
}

func (s *Service) emitTransition(ctx context.Context, post store.Post, from, to string, actor rbac.Actor) {
	if s.events == nil {
		return
	}
	ev := events.TransitionEvent{
		PostID:     post.ID,
		ClientID:   post.ClientID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
	}
	if err := s.events.PublishTransition(ctx, ev); err != nil {
		log.Printf("events: publish transition for post %s: %v", post.ID, err)
	}
}

func (s *Service) notifyClientReview(ctx context.Context, post store.Post) {
	if !s.SMTPConfigured() {
		return
	}
	client, err := s.store.GetClient(ctx, post.ClientID)
	if err != nil || client.ContactEmail == "" {
		return
	}
	reviewURL := strings.TrimRight(s.cfg.CORSOrigin, "/") + "/posts/" + post.ID
	if err := s.email.SendReviewRequestEmail(client.ContactEmail, client.Name, post.Title, reviewURL); err != nil {
		log.Printf("email: review request for post %s: %v", post.ID, err)
	}
}

func postPayload(post store.Post) map[string]any {
	payload := map[string]any{
		"id":                     post.ID,
		"clientId":               post.ClientID,
		"title":                  post.Title,
		"body":                   post.Body,
		"status":                 post.Status,
		"locked":                 post.Locked,
		"visibleToClient":        post.VisibleToClient,
		"awaitingClientApproval": post.AwaitingClientApproval,
		"createdBy":              post.CreatedBy,
		"createdAt":              post.CreatedAt,
		"updatedAt":              post.UpdatedAt,
	}
	if post.PublishDate != nil {
		payload["publishDate"] = post.PublishDate
	} else {
		payload["publishDate"] = nil
	}
	return payload
}

// --- Comments and approvals ---

func (s *Service) ListPostComments(ctx context.Context, actorID, postID string) ([]map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(actor, rbac.Post{ClientID: post.ClientID, Locked: post.Locked}, rbac.ActionView); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	visible := collab.FilterComments(actor, post.VisibleToClient, comments)
	items := make([]map[string]any, 0, len(visible))
	for _, comment := range visible {
		items = append(items, commentPayload(comment))
	}
	return items, nil
}

type PostCommentInput struct {
	Scope string `json:"scope"`
	Text  string `json:"text"`
}

func (s *Service) PostComment(ctx context.Context, actorID, postID string, input PostCommentInput) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	scope := strings.ToLower(strings.TrimSpace(input.Scope))
	action := rbac.ActionCommentTeam
	if scope == collab.ScopeClient {
		action = rbac.ActionCommentClient
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(actor, rbac.Post{ClientID: post.ClientID, Locked: post.Locked}, action); err != nil {
		return nil, err
	}
	if err := collab.CheckComment(actor, post.VisibleToClient, scope); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "text is required", nil)
	}

	comment := store.Comment{
		ID:         util.NewID("cmt"),
		PostID:     postID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Scope:      scope,
		Body:       text,
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexComment(search.CommentRecord{
			ID:              comment.ID,
			Body:            comment.Body,
			AuthorName:      comment.AuthorName,
			PostID:          postID,
			ClientID:        post.ClientID,
			Scope:           scope,
			VisibleToClient: post.VisibleToClient,
		})
	}
	return commentPayload(comment), nil
}

func commentPayload(comment store.Comment) map[string]any {
	return map[string]any{
		"id":         comment.ID,
		"postId":     comment.PostID,
		"authorId":   comment.AuthorID,
		"authorName": comment.AuthorName,
		"scope":      comment.Scope,
		"text":       comment.Body,
		"createdAt":  comment.CreatedAt,
	}
}

type RecordApprovalInput struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// RecordApproval appends an approval record. It never touches post status;
// moving an approved post forward stays a separate explicit transition.
func (s *Service) RecordApproval(ctx context.Context, actorID, postID string, input RecordApprovalInput) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(actor, rbac.Post{ClientID: post.ClientID, Locked: post.Locked}, rbac.ActionApprove); err != nil {
		return nil, err
	}
	decision := strings.ToLower(strings.TrimSpace(input.Decision))
	if err := collab.CheckApproval(actor, post.AwaitingClientApproval, decision); err != nil {
		return nil, err
	}

	approval := store.Approval{
		PostID:    postID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Decision:  decision,
		Note:      strings.TrimSpace(input.Note),
	}
	if err := s.store.InsertApproval(ctx, approval); err != nil {
		return nil, err
	}
	return map[string]any{
		"postId":    postID,
		"actorId":   actor.ID,
		"actorName": actor.Name,
		"decision":  decision,
		"note":      approval.Note,
	}, nil
}

func (s *Service) ListPostApprovals(ctx context.Context, actorID, postID string) ([]map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(actor, rbac.Post{ClientID: post.ClientID, Locked: post.Locked}, rbac.ActionView); err != nil {
		return nil, err
	}
	approvals, err := s.store.ListApprovals(ctx, postID)
	if err != nil {
		return nil, err
	}
	visible := collab.FilterApprovals(actor, post.VisibleToClient, approvals)
	items := make([]map[string]any, 0, len(visible))
	for _, approval := range visible {
		items = append(items, map[string]any{
			"id":        approval.ID,
			"postId":    approval.PostID,
			"actorId":   approval.ActorID,
			"actorName": approval.ActorName,
			"decision":  approval.Decision,
			"note":      approval.Note,
			"createdAt": approval.CreatedAt,
		})
	}
	return items, nil
}

// --- Search ---

func (s *Service) Search(ctx context.Context, actorID, text, filterType, clientID string, limit, offset int) (search.Response, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return search.Response{}, err
	}
	if !actor.Active {
		return search.Response{}, rbac.ErrInactiveAccount
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}

	q := search.Query{
		Text:           text,
		FilterType:     search.ResultType(filterType),
		FilterClientID: clientID,
		Limit:          limit,
		Offset:         offset,
	}
	if actor.Role == rbac.RoleClient {
		q.FilterClientID = actor.ClientID
		q.IsClient = true
	}
	return s.search.Search(q), nil
}
