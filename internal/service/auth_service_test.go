package service

import (
	"context"
	"testing"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService() *AuthService {
	return NewAuthService(memory.NewStore().Users(), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "operator1", Password: "matkhau123"})
	require.NoError(t, err)
	assert.Equal(t, "operator", user.Role) // vai trò mặc định

	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "operator1", Password: "matkhau123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "operator1", resp.Username)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "operator1", claims["username"])
	assert.Equal(t, "operator", claims["role"])
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "operator1", Password: "matkhau123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginUserDTO{Username: "operator1", Password: "saimatkhau"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginUserDTO{Username: "khongtontai", Password: "matkhau123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "operator1", Password: "matkhau123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterUserDTO{Username: "operator1", Password: "matkhaukhac"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService()
	_, err := svc.ValidateToken("khong.phai.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Token ký bằng secret khác cũng bị từ chối.
	other := NewAuthService(memory.NewStore().Users(), "secret-khac", time.Hour)
	_, regErr := other.Register(context.Background(), domain.RegisterUserDTO{Username: "u1", Password: "matkhau123"})
	require.NoError(t, regErr)
	resp, loginErr := other.Login(context.Background(), domain.LoginUserDTO{Username: "u1", Password: "matkhau123"})
	require.NoError(t, loginErr)

	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
