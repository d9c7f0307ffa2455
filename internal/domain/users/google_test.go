package users

import (
	"context"
	"testing"

	"ministry-site/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkGoogle(t *testing.T) {
	db := testutil.NewDB(t, &User{})
	ctx := context.Background()

	local, err := Create(ctx, db, NewUser{Name: "Ana", Email: "ana@igreja.test", Password: "louvor2026", Role: "editor"})
	require.NoError(t, err)

	// same email: the local account is linked and keeps its role and password
	u, err := LinkGoogle(ctx, db, GoogleAccount{Sub: "g-ana", Email: "Ana@Igreja.test"}, "member")
	require.NoError(t, err)
	assert.Equal(t, local.ID, u.ID)
	assert.Equal(t, "editor", u.Role)
	require.NotNil(t, u.GoogleSub)
	assert.NoError(t, u.CheckPassword("louvor2026"))

	// known subject wins even if the email changed at Google
	again, err := LinkGoogle(ctx, db, GoogleAccount{Sub: "g-ana", Email: "ana.souza@igreja.test"}, "member")
	require.NoError(t, err)
	assert.Equal(t, local.ID, again.ID)

	// another subject cannot take over a linked email
	_, err = LinkGoogle(ctx, db, GoogleAccount{Sub: "g-other", Email: "ana@igreja.test"}, "member")
	assert.ErrorIs(t, err, ErrGoogleAccountMismatch)

	fresh, err := LinkGoogle(ctx, db, GoogleAccount{Sub: "g-davi", Email: "davi@igreja.test", Name: "Davi Lima", GivenName: "Davi", FamilyName: "Lima"}, "member")
	require.NoError(t, err)
	assert.Equal(t, "Davi", fresh.Name)
	assert.Equal(t, "member", fresh.Role)
	assert.Equal(t, ProviderGoogle, fresh.AuthProvider)
	assert.ErrorIs(t, fresh.CheckPassword("x"), ErrNoPassword)

	_, err = LinkGoogle(ctx, db, GoogleAccount{Email: "x@igreja.test"}, "member")
	assert.ErrorIs(t, err, ErrGoogleAccountIncomplete)
}
