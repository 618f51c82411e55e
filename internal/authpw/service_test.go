package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"cadence/api/internal/store"
)

// mockMemberStore is a mock implementation of MemberStore for testing
type mockMemberStore struct {
	members       map[string]store.TeamMember
	emailIndex    map[string]string // email -> memberID
	verifications map[string]store.TeamMember
	resets        map[string]struct {
		memberID  string
		expiresAt time.Time
		used      bool
	}
}

func newMockMemberStore() *mockMemberStore {
	return &mockMemberStore{
		members:       make(map[string]store.TeamMember),
		emailIndex:    make(map[string]string),
		verifications: make(map[string]store.TeamMember),
		resets: make(map[string]struct {
			memberID  string
			expiresAt time.Time
			used      bool
		}),
	}
}

func (m *mockMemberStore) TeamMemberByEmail(ctx context.Context, email string) (store.TeamMember, error) {
	if memberID, ok := m.emailIndex[email]; ok {
		return m.members[memberID], nil
	}
	return store.TeamMember{}, errors.New("member not found")
}

func (m *mockMemberStore) TeamMemberByID(ctx context.Context, id string) (store.TeamMember, error) {
	if member, ok := m.members[id]; ok {
		return member, nil
	}
	return store.TeamMember{}, errors.New("member not found")
}

func (m *mockMemberStore) CreateTeamMember(ctx context.Context, member store.TeamMember) error {
	m.members[member.ID] = member
	m.emailIndex[member.Email] = member.ID
	return nil
}

func (m *mockMemberStore) UpdateMemberVerificationToken(ctx context.Context, memberID, token string, expiresAt time.Time) error {
	if member, ok := m.members[memberID]; ok {
		member.VerificationToken = token
		member.VerificationExpiresAt = &expiresAt
		m.members[memberID] = member
		m.verifications[token] = member
	}
	return nil
}

func (m *mockMemberStore) VerifyMemberEmail(ctx context.Context, token string) error {
	if member, ok := m.verifications[token]; ok {
		member.IsEmailVerified = true
		m.members[member.ID] = member
		m.emailIndex[member.Email] = member.ID
		return nil
	}
	return errors.New("invalid token")
}

func (m *mockMemberStore) UpdateMemberPassword(ctx context.Context, memberID, passwordHash string) error {
	if member, ok := m.members[memberID]; ok {
		member.PasswordHash = passwordHash
		m.members[memberID] = member
		return nil
	}
	return errors.New("member not found")
}

func (m *mockMemberStore) CreatePasswordReset(ctx context.Context, memberID, token string, expiresAt time.Time) error {
	m.resets[token] = struct {
		memberID  string
		expiresAt time.Time
		used      bool
	}{memberID: memberID, expiresAt: expiresAt, used: false}
	return nil
}

func (m *mockMemberStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	if reset, ok := m.resets[token]; ok && !reset.used && time.Now().Before(reset.expiresAt) {
		return reset.memberID, nil
	}
	return "", errors.New("invalid or expired token")
}

func (m *mockMemberStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	if reset, ok := m.resets[token]; ok {
		reset.used = true
		m.resets[token] = reset
	}
	return nil
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockMemberStore()
	svc := NewService(mockStore, "test-secret")

	t.Run("successful sign up", func(t *testing.T) {
		req := SignUpRequest{
			Email:       "test@example.com",
			Password:    "password123",
			DisplayName: "Test Member",
		}

		resp, err := svc.SignUp(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.MemberID == "" {
			t.Error("expected MemberID to be set")
		}
		if resp.VerificationToken == "" {
			t.Error("expected VerificationToken to be set")
		}
		if !resp.RequiresEmailVerify {
			t.Error("expected RequiresEmailVerify to be true")
		}
	})

	t.Run("new accounts default to member role", func(t *testing.T) {
		req := SignUpRequest{
			Email:       "role@example.com",
			Password:    "password123",
			DisplayName: "Role Check",
		}

		resp, err := svc.SignUp(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		member, _ := mockStore.TeamMemberByID(ctx, resp.MemberID)
		if member.Role != "member" {
			t.Errorf("expected role member, got %s", member.Role)
		}
		if member.Status != store.MemberActive {
			t.Errorf("expected status active, got %s", member.Status)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := SignUpRequest{
			Email:       "test@example.com",
			Password:    "password123",
			DisplayName: "Test Member 2",
		}

		_, err := svc.SignUp(ctx, req)
		if err == nil {
			t.Error("expected error for duplicate email")
		}
	})

	t.Run("short password", func(t *testing.T) {
		req := SignUpRequest{
			Email:       "test2@example.com",
			Password:    "short",
			DisplayName: "Test Member",
		}

		_, err := svc.SignUp(ctx, req)
		if err == nil {
			t.Error("expected error for short password")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.SignUp(ctx, SignUpRequest{})
		if err == nil {
			t.Error("expected error for missing fields")
		}
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockMemberStore()
	svc := NewService(mockStore, "test-secret")

	// Create a verified member
	req := SignUpRequest{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test Member",
	}
	resp, _ := svc.SignUp(ctx, req)
	svc.VerifyEmail(ctx, resp.VerificationToken)

	t.Run("successful sign in", func(t *testing.T) {
		signInReq := SignInRequest{
			Email:    "test@example.com",
			Password: "password123",
		}

		signInResp, err := svc.SignIn(ctx, signInReq)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if signInResp.Member.Email != "test@example.com" {
			t.Errorf("expected email test@example.com, got %s", signInResp.Member.Email)
		}
		if signInResp.RequiresVerify {
			t.Error("expected RequiresVerify to be false for verified member")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		req := SignInRequest{
			Email:    "test@example.com",
			Password: "wrongpassword",
		}

		_, err := svc.SignIn(ctx, req)
		if err == nil {
			t.Error("expected error for wrong password")
		}
	})

	t.Run("non-existent member", func(t *testing.T) {
		req := SignInRequest{
			Email:    "nonexistent@example.com",
			Password: "password123",
		}

		_, err := svc.SignIn(ctx, req)
		if err == nil {
			t.Error("expected error for non-existent member")
		}
	})

	t.Run("inactive account", func(t *testing.T) {
		signUpReq := SignUpRequest{
			Email:       "inactive@example.com",
			Password:    "password123",
			DisplayName: "Inactive Member",
		}
		resp, _ := svc.SignUp(ctx, signUpReq)
		svc.VerifyEmail(ctx, resp.VerificationToken)

		member := mockStore.members[resp.MemberID]
		member.Status = store.MemberInactive
		mockStore.members[resp.MemberID] = member

		_, err := svc.SignIn(ctx, SignInRequest{
			Email:    "inactive@example.com",
			Password: "password123",
		})
		if err == nil {
			t.Error("expected error for inactive account")
		}
	})

	t.Run("unverified email", func(t *testing.T) {
		// Create unverified member
		signUpReq := SignUpRequest{
			Email:       "unverified@example.com",
			Password:    "password123",
			DisplayName: "Unverified Member",
		}
		svc.SignUp(ctx, signUpReq)

		signInReq := SignInRequest{
			Email:    "unverified@example.com",
			Password: "password123",
		}

		resp, err := svc.SignIn(ctx, signInReq)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.RequiresVerify {
			t.Error("expected RequiresVerify to be true for unverified member")
		}
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockMemberStore()
	svc := NewService(mockStore, "test-secret")

	// Create a member
	req := SignUpRequest{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test Member",
	}
	resp, _ := svc.SignUp(ctx, req)

	t.Run("valid token", func(t *testing.T) {
		err := svc.VerifyEmail(ctx, resp.VerificationToken)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify member is now verified
		member, _ := mockStore.TeamMemberByID(ctx, resp.MemberID)
		if !member.IsEmailVerified {
			t.Error("expected member to be verified")
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		err := svc.VerifyEmail(ctx, "invalid-token")
		if err == nil {
			t.Error("expected error for invalid token")
		}
	})

	t.Run("empty token", func(t *testing.T) {
		err := svc.VerifyEmail(ctx, "")
		if err == nil {
			t.Error("expected error for empty token")
		}
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockMemberStore()
	svc := NewService(mockStore, "test-secret")

	// Create and verify a member
	signUpReq := SignUpRequest{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test Member",
	}
	resp, _ := svc.SignUp(ctx, signUpReq)
	svc.VerifyEmail(ctx, resp.VerificationToken)

	t.Run("request reset for existing member", func(t *testing.T) {
		token, err := svc.RequestPasswordReset(ctx, "test@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Error("expected token to be generated")
		}
	})

	t.Run("request reset for non-existent member - no error", func(t *testing.T) {
		_, err := svc.RequestPasswordReset(ctx, "nonexistent@example.com")
		if err != nil {
			t.Errorf("expected no error for non-existent member, got: %v", err)
		}
	})

	t.Run("reset password with valid token", func(t *testing.T) {
		token, _ := svc.RequestPasswordReset(ctx, "test@example.com")

		err := svc.ResetPassword(ctx, ResetPasswordRequest{
			Token:       token,
			NewPassword: "newpassword123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify old password doesn't work
		_, err = svc.SignIn(ctx, SignInRequest{
			Email:    "test@example.com",
			Password: "password123",
		})
		if err == nil {
			t.Error("expected old password to not work")
		}

		// Verify new password works
		_, err = svc.SignIn(ctx, SignInRequest{
			Email:    "test@example.com",
			Password: "newpassword123",
		})
		if err != nil {
			t.Errorf("expected new password to work: %v", err)
		}
	})

	t.Run("reset with invalid token", func(t *testing.T) {
		err := svc.ResetPassword(ctx, ResetPasswordRequest{
			Token:       "invalid-token",
			NewPassword: "newpassword123",
		})
		if err == nil {
			t.Error("expected error for invalid token")
		}
	})

	t.Run("reset with short password", func(t *testing.T) {
		err := svc.ResetPassword(ctx, ResetPasswordRequest{
			Token:       "some-token",
			NewPassword: "short",
		})
		if err == nil {
			t.Error("expected error for short password")
		}
	})
}
