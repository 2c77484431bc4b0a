package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
	customerrepo "github.com/xRWDev/ReTech/internal/repository/customer"
	"github.com/xRWDev/ReTech/internal/repository/pgtest"
	tokenrepo "github.com/xRWDev/ReTech/internal/repository/token"
)

func TestSignupAndLogin_Integration(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()

	svc := New(customerrepo.NewPostgres(pool, nil), tokenrepo.NewPostgres(pool), nil)

	password := "Abcdefg1"
	cust, err := svc.Signup(ctx, SignupInput{
		Email:    "integration@example.com",
		Password: password,
		Name:     "Int User",
		Phone:    "+380500000000",
	})
	require.NoError(t, err)
	require.NotEmpty(t, cust.ID)

	_, tokens, err := svc.Login(ctx, "integration@example.com", password)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	_, err = svc.GrantRole(ctx, "integration@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	id, err := svc.LookupByToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, cust.ID, id.UserID)
	assert.True(t, id.IsAdmin)
}
