package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipnfc/equipment-manager/internal/config"
	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-secret",
		TokenTTLDays: 7,
		BcryptCost:   4, // min cost keeps hashing fast in tests
		ResetTTLMin:  30,
		AppURL:       "http://localhost:5173",
	}
}

func newAuthFixture() (*AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	return NewAuthService(testConfig(), users), users
}

func TestRegisterIssuesUsableToken(t *testing.T) {
	svc, users := newAuthFixture()

	res, err := svc.Register(context.Background(), "  Jean.Dupont@Example.COM ", "longenough", "Jean", "Dupont", "")
	require.NoError(t, err)

	assert.Equal(t, "jean.dupont@example.com", res.User.Email)
	assert.Equal(t, model.RoleUser, res.User.Role)
	assert.True(t, res.User.IsActive)

	cl, err := utils.ParseAccessToken("test-secret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, cl.UserID)
	assert.Equal(t, model.RoleUser, cl.Role)

	// the stored credential is a hash, never the plaintext
	stored := users.byID[res.User.ID]
	assert.NotEqual(t, "longenough", stored.PasswordHash)
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "longenough"))
}

func TestRegisterRoleCoercion(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	res, err := svc.Register(ctx, "a@example.com", "longenough", "A", "B", "SUPERUSER")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, res.User.Role)

	res, err = svc.Register(ctx, "b@example.com", "longenough", "A", "B", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "longenough", "A", "B", "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Register(ctx, "a@example.com", "short", "A", "B", "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "longenough", "A", "B", "")
	require.NoError(t, err)

	// same address with different case is still a duplicate
	_, err = svc.Register(ctx, "A@Example.com", "longenough", "A", "B", "")
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestLogin(t *testing.T) {
	svc, users := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "longenough", "A", "B", "")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "A@EXAMPLE.COM", "longenough")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	// unknown email and wrong password must be indistinguishable
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "longenough")
	_, errWrong := svc.Login(ctx, "a@example.com", "wrong-password")
	assert.Equal(t, KindUnauthorized, KindOf(errUnknown))
	assert.Equal(t, KindUnauthorized, KindOf(errWrong))
	assert.Equal(t, errUnknown.Error(), errWrong.Error())

	// deactivated accounts cannot log in
	u := users.byID[res.User.ID]
	u.IsActive = false
	users.byID[u.ID] = u
	_, err = svc.Login(ctx, "a@example.com", "longenough")
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestProfileWithCounts(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	res, err := svc.Register(ctx, "a@example.com", "longenough", "A", "B", "")
	require.NoError(t, err)

	p, err := svc.Profile(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, int64(3), p.EquipmentsCreated)
	assert.Equal(t, int64(7), p.EventsAuthored)

	_, err = svc.Profile(ctx, 999)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	a, err := svc.Register(ctx, "a@example.com", "longenough", "A", "B", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "b@example.com", "longenough", "C", "D", "")
	require.NoError(t, err)

	taken := "b@example.com"
	_, err = svc.UpdateProfile(ctx, a.User.ID, nil, nil, &taken)
	assert.Equal(t, KindConflict, KindOf(err))

	// keeping one's own email is not a conflict
	own := "a@example.com"
	first := "Jean"
	p, err := svc.UpdateProfile(ctx, a.User.ID, &first, nil, &own)
	require.NoError(t, err)
	assert.Equal(t, "Jean", p.FirstName)
}

func TestChangePassword(t *testing.T) {
	svc, users := newAuthFixture()
	ctx := context.Background()

	res, err := svc.Register(ctx, "a@example.com", "longenough", "A", "B", "")
	require.NoError(t, err)
	id := res.User.ID

	err = svc.ChangePassword(ctx, id, "wrong-current", "anotherlong")
	assert.Equal(t, KindUnauthorized, KindOf(err))

	err = svc.ChangePassword(ctx, id, "longenough", "short")
	assert.Equal(t, KindValidation, KindOf(err))

	err = svc.ChangePassword(ctx, id, "longenough", "anotherlong")
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(users.byID[id].PasswordHash, "anotherlong"))
	assert.False(t, utils.VerifyPassword(users.byID[id].PasswordHash, "longenough"))
}
