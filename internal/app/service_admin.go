package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"cadence/api/internal/media"
	"cadence/api/internal/rbac"
	"cadence/api/internal/store"
	"cadence/api/internal/util"
)

// Admin and tenant management operations: clients, team members, post
// platforms, and media assets.

func (s *Service) SetMedia(svc *media.Service) { s.media = svc }

func (s *Service) requireRole(ctx context.Context, actorID string, roles ...rbac.Role) (rbac.Actor, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return rbac.Actor{}, err
	}
	if !actor.Active {
		return rbac.Actor{}, rbac.ErrInactiveAccount
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return rbac.Actor{}, rbac.ErrRoleForbidden
}

// --- Clients ---

type CreateClientInput struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	BrandColor   string `json:"brandColor"`
	ContactEmail string `json:"contactEmail"`
}

func (s *Service) CreateClient(ctx context.Context, actorID string, input CreateClientInput) (map[string]any, error) {
	if _, err := s.requireRole(ctx, actorID, rbac.RoleAdmin, rbac.RoleManager); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	client := store.Client{
		ID:           util.NewID("cli"),
		Name:         name,
		Slug:         slug,
		BrandColor:   strings.TrimSpace(input.BrandColor),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
	}
	if err := s.store.InsertClient(ctx, client); err != nil {
		return nil, err
	}
	return clientPayload(client), nil
}

func (s *Service) ListClients(ctx context.Context, actorID string) ([]map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, rbac.ErrInactiveAccount
	}

	if actor.Role == rbac.RoleClient {
		// A client contact sees exactly its own tenant
		client, err := s.store.GetClient(ctx, actor.ClientID)
		if err != nil {
			return nil, err
		}
		return []map[string]any{clientPayload(client)}, nil
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(clients))
	for _, client := range clients {
		items = append(items, clientPayload(client))
	}
	return items, nil
}

func (s *Service) GetClient(ctx context.Context, actorID, clientID string) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, rbac.ErrInactiveAccount
	}
	if actor.Role == rbac.RoleClient && actor.ClientID != clientID {
		return nil, rbac.ErrCrossTenantAccess
	}
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return clientPayload(client), nil
}

func clientPayload(client store.Client) map[string]any {
	return map[string]any{
		"id":           client.ID,
		"name":         client.Name,
		"slug":         client.Slug,
		"brandColor":   client.BrandColor,
		"contactEmail": client.ContactEmail,
		"createdAt":    client.CreatedAt,
	}
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// --- Team members ---

func (s *Service) ListTeamMembers(ctx context.Context, actorID string) ([]map[string]any, error) {
	if _, err := s.requireRole(ctx, actorID, rbac.RoleAdmin, rbac.RoleManager); err != nil {
		return nil, err
	}
	members, err := s.store.ListTeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(members))
	for _, member := range members {
		items = append(items, memberPayload(member))
	}
	return items, nil
}

type UpdateMemberRoleInput struct {
	Role     string `json:"role"`
	ClientID string `json:"clientId"`
}

// UpdateMemberRole is admin-only. A client role requires exactly one client
// scope; every other role requires none.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, memberID string, input UpdateMemberRoleInput) (map[string]any, error) {
	if _, err := s.requireRole(ctx, actorID, rbac.RoleAdmin); err != nil {
		return nil, err
	}
	role := rbac.Role(strings.ToLower(strings.TrimSpace(input.Role)))
	if !rbac.Valid(role) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be one of admin, manager, member, client", nil)
	}
	clientID := strings.TrimSpace(input.ClientID)
	if role == rbac.RoleClient {
		if clientID == "" {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientId is required for the client role", nil)
		}
		if _, err := s.store.GetClient(ctx, clientID); err != nil {
			return nil, err
		}
	} else if clientID != "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "clientId is only valid for the client role", nil)
	}

	if err := s.store.UpdateTeamMemberRole(ctx, memberID, string(role), clientID); err != nil {
		return nil, err
	}
	member, err := s.store.TeamMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return memberPayload(member), nil
}

type SetMemberStatusInput struct {
	Status string `json:"status"`
}

// SetMemberStatus flips active/inactive. Members are never hard-deleted;
// deactivation takes effect on the target's next request.
func (s *Service) SetMemberStatus(ctx context.Context, actorID, memberID string, input SetMemberStatusInput) (map[string]any, error) {
	if _, err := s.requireRole(ctx, actorID, rbac.RoleAdmin); err != nil {
		return nil, err
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != store.MemberActive && status != store.MemberInactive {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be active or inactive", nil)
	}
	if err := s.store.SetTeamMemberStatus(ctx, memberID, status); err != nil {
		return nil, err
	}
	member, err := s.store.TeamMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return memberPayload(member), nil
}

func memberPayload(member store.TeamMember) map[string]any {
	payload := map[string]any{
		"id":          member.ID,
		"email":       member.Email,
		"displayName": member.DisplayName,
		"role":        member.Role,
		"status":      member.Status,
		"createdAt":   member.CreatedAt,
	}
	if member.ClientID != "" {
		payload["clientId"] = member.ClientID
	}
	return payload
}

// --- Post platforms ---

type AddPlatformInput struct {
	Platform      string `json:"platform"`
	AccountHandle string `json:"accountHandle"`
}

var allowedPlatforms = map[string]struct{}{
	"instagram": {},
	"facebook":  {},
	"tiktok":    {},
	"linkedin":  {},
	"x":         {},
	"youtube":   {},
}

func (s *Service) AddPostPlatform(ctx context.Context, actorID, postID string, input AddPlatformInput) (map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guardPost(ctx, actor, postID, rbac.ActionEditContent); err != nil {
		return nil, err
	}
	platform := strings.ToLower(strings.TrimSpace(input.Platform))
	if _, ok := allowedPlatforms[platform]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown platform", nil)
	}
	handle := strings.TrimSpace(input.AccountHandle)
	if handle == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "accountHandle is required", nil)
	}
	record := store.PostPlatform{
		ID:            util.NewID("plt"),
		PostID:        postID,
		Platform:      platform,
		AccountHandle: handle,
	}
	if err := s.store.InsertPostPlatform(ctx, record); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":            record.ID,
		"postId":        postID,
		"platform":      platform,
		"accountHandle": handle,
	}, nil
}

func (s *Service) ListPostPlatforms(ctx context.Context, actorID, postID string) ([]map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guardPost(ctx, actor, postID, rbac.ActionView); err != nil {
		return nil, err
	}
	platforms, err := s.store.ListPostPlatforms(ctx, postID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(platforms))
	for _, p := range platforms {
		items = append(items, map[string]any{
			"id":            p.ID,
			"postId":        p.PostID,
			"platform":      p.Platform,
			"accountHandle": p.AccountHandle,
			"createdAt":     p.CreatedAt,
		})
	}
	return items, nil
}

// --- Media assets ---

type AttachMediaInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

func (s *Service) AttachMedia(ctx context.Context, actorID, postID string, input AttachMediaInput) (map[string]any, error) {
	if s.media == nil {
		return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage not configured", nil)
	}
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == rbac.RoleClient {
		return nil, rbac.ErrRoleForbidden
	}
	post, err := s.guardPost(ctx, actor, postID, rbac.ActionEditContent)
	if err != nil {
		return nil, err
	}
	if !media.ValidContentType(input.ContentType) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unsupported content type", nil)
	}

	assetID := util.NewID("med")
	key := media.ObjectKey(post.ClientID, postID, assetID, input.FileName)
	if err := s.media.Upload(ctx, key, input.ContentType, input.Size, input.Data); err != nil {
		return nil, err
	}

	asset := store.MediaAsset{
		ID:          assetID,
		PostID:      postID,
		ObjectKey:   key,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.Size,
		UploadedBy:  actor.ID,
	}
	if err := s.store.InsertMediaAsset(ctx, asset); err != nil {
		return nil, err
	}
	return mediaPayload(asset, ""), nil
}

func (s *Service) ListPostMedia(ctx context.Context, actorID, postID string) ([]map[string]any, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guardPost(ctx, actor, postID, rbac.ActionView); err != nil {
		return nil, err
	}
	assets, err := s.store.ListMediaAssets(ctx, postID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		url := ""
		if s.media != nil {
			if signed, err := s.media.PresignedURL(ctx, asset.ObjectKey, 15*time.Minute); err == nil {
				url = signed
			}
		}
		items = append(items, mediaPayload(asset, url))
	}
	return items, nil
}

func mediaPayload(asset store.MediaAsset, url string) map[string]any {
	payload := map[string]any{
		"id":          asset.ID,
		"postId":      asset.PostID,
		"fileName":    asset.FileName,
		"contentType": asset.ContentType,
		"sizeBytes":   asset.SizeBytes,
		"uploadedBy":  asset.UploadedBy,
		"createdAt":   asset.CreatedAt,
	}
	if url != "" {
		payload["url"] = url
	}
	return payload
}
