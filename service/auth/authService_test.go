package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"townbook/model"
	userrepo "townbook/repository/user"
	"townbook/util/hash"
)

type mockRepo struct {
	createFn         func(ctx context.Context, u *model.User) error
	byEmailFn        func(ctx context.Context, email string) (*model.User, error)
	byIDFn           func(ctx context.Context, id int64) (*model.User, error)
	updateProfileFn  func(ctx context.Context, id int64, name, email string) error
	updatePasswordFn func(ctx context.Context, id int64, passwordHash string) error
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	if m.updateProfileFn == nil {
		return nil
	}
	return m.updateProfileFn(ctx, id, name, email)
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.updatePasswordFn == nil {
		return nil
	}
	return m.updatePasswordFn(ctx, id, passwordHash)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Register(ctx, model.RegisterReq{
		Name:     "Alex Morgan",
		Email:    "USER@Example.COM",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, model.RoleMember, u.Role)
	require.NotEmpty(t, u.PasswordHash)
	require.True(t, hash.Check(u.PasswordHash, "supersecret"))
}

func TestRegister_CreateError(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return errors.New("db down")
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "x",
		Email:    "ok@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrEmailTaken))
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           7,
				Email:        "user@example.com",
				Role:         model.RoleMember,
				PasswordHash: hashed,
			}, nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: pw})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "missing@example.com", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 101, Email: email, PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{Email: "user@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestMe_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret")

	_, err := svc.Me(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	var gotName, gotEmail string
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Old Name", Email: "old@example.com"}, nil
		},
		updateProfileFn: func(ctx context.Context, id int64, name, email string) error {
			gotName, gotEmail = name, email
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, err := svc.UpdateProfile(ctx, 7, model.UpdateProfileReq{Name: " New Name ", Email: "NEW@Example.com"})
	require.NoError(t, err)
	require.Equal(t, "New Name", u.Name)
	require.Equal(t, "new@example.com", u.Email)
	require.Equal(t, "New Name", gotName)
	require.Equal(t, "new@example.com", gotEmail)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "real-password")
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PasswordHash: hashed}, nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash string) error {
			t.Fatal("password must not be updated when the current one is wrong")
			return nil
		},
	}
	svc := New(m, "test-secret")

	err := svc.UpdatePassword(ctx, 7, model.UpdatePasswordReq{
		CurrentPassword: "guess",
		NewPassword:     "new-password",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestUpdatePassword_Success(t *testing.T) {
	ctx := context.Background()
	hashed := mustHash(t, "real-password")
	var stored string
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PasswordHash: hashed}, nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, passwordHash string) error {
			stored = passwordHash
			return nil
		},
	}
	svc := New(m, "test-secret")

	err := svc.UpdatePassword(ctx, 7, model.UpdatePasswordReq{
		CurrentPassword: "real-password",
		NewPassword:     "new-password",
	})
	require.NoError(t, err)
	require.True(t, hash.Check(stored, "new-password"))
}
