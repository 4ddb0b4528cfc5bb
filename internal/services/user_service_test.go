package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func requireValidation(t *testing.T, err error, field string) *utils.ValidationError {
	t.Helper()
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	if field != "" {
		assert.Equal(t, field, verr.Field)
	}
	return verr
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	in := signup(" 111 ", "secret12")
	in.Name = "  Ana "
	in.Email = " Ana@Example.com"
	in.Age = 30

	user, err := env.users.CreateUser(ctx, in)
	require.NoError(t, err)

	assert.False(t, user.ID.IsZero())
	assert.Equal(t, "111", user.CPF)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, 30, user.Age)
	assert.True(t, user.IsLead)
	assert.Empty(t, user.Tokens)
	assert.NotEqual(t, "secret12", user.Password)

	ok, err := utils.VerifyPassword("secret12", user.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateUser_JSONHidesSecrets(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)
	_, err = env.sessions.IssueToken(ctx, user)
	require.NoError(t, err)

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "tokens")
	assert.NotContains(t, string(data), user.Tokens[0].Token)
	assert.Equal(t, "111", out["cpf"])
	assert.Equal(t, true, out["isLead"])
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"missing cpf", signup("  ", "secret12"), "cpf"},
		{"short password", signup("111", "abc"), "password"},
		{"password word", signup("111", "myPassword1"), "password"},
		{"bad email", SignupInput{Profile: Profile{CPF: "111", Email: "not-an-email"}, Password: "secret12"}, "email"},
		{"negative age", SignupInput{Profile: Profile{CPF: "111", Age: -2}, Password: "secret12"}, "age"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			_, err := env.users.CreateUser(context.Background(), tc.in)
			requireValidation(t, err, tc.field)
			assert.Zero(t, env.store.Len())
		})
	}
}

func TestCreateUser_Uniqueness(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := signup("111", "secret12")
	first.Email = "ana@example.com"
	_, err := env.users.CreateUser(ctx, first)
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, signup("111", "secret34"))
	requireValidation(t, err, "cpf")

	second := signup("222", "secret12")
	second.Email = "ANA@example.com"
	_, err = env.users.CreateUser(ctx, second)
	requireValidation(t, err, "email")

	assert.Equal(t, 1, env.store.Len())
}

func TestFindByCredentials(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	user, err := env.users.FindByCredentials(ctx, "111", "secret12")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = env.users.FindByCredentials(ctx, "111", "secret13")
	assert.ErrorIs(t, err, ErrUnableToLogin)

	_, err = env.users.FindByCredentials(ctx, "999", "secret12")
	assert.ErrorIs(t, err, ErrUnableToLogin)

	_, err = env.users.FindByCredentials(ctx, "111", "")
	assert.ErrorIs(t, err, ErrUnableToLogin)
}

func TestFindByCredentials_StoreFailure(t *testing.T) {
	env := newTestEnv()
	env.store.FailWith(errors.New("connection reset"))

	_, err := env.users.FindByCredentials(context.Background(), "111", "secret12")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnableToLogin)
}

func TestCompleteSignup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	lead, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	user, err := env.users.CompleteSignup(ctx, lead.ID.Hex(), fields(t, `{"name":"Ana","email":"ana@example.com","age":41,"password":"newsecret"}`))
	require.NoError(t, err)
	assert.False(t, user.IsLead)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, 41, user.Age)

	stored, err := env.store.FindByID(ctx, lead.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.IsLead)
	assert.Equal(t, "ana@example.com", stored.Email)

	_, err = env.users.FindByCredentials(ctx, "111", "newsecret")
	assert.NoError(t, err)
	_, err = env.users.FindByCredentials(ctx, "111", "secret12")
	assert.ErrorIs(t, err, ErrUnableToLogin)
}

func TestCompleteSignup_EmptyBodyStillClearsLead(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	lead, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	user, err := env.users.CompleteSignup(ctx, lead.ID.Hex(), fields(t, `{}`))
	require.NoError(t, err)
	assert.False(t, user.IsLead)
}

func TestCompleteSignup_Errors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	lead, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	_, err = env.users.CompleteSignup(ctx, "65f000000000000000000000", fields(t, `{"name":"Ana"}`))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.users.CompleteSignup(ctx, "not-an-id", fields(t, `{"name":"Ana"}`))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.users.CompleteSignup(ctx, lead.ID.Hex(), fields(t, `{"isLead":true}`))
	assert.ErrorIs(t, err, ErrInvalidUpdates)

	_, err = env.users.CompleteSignup(ctx, lead.ID.Hex(), fields(t, `{"age":"old"}`))
	requireValidation(t, err, "age")

	_, err = env.users.CompleteSignup(ctx, lead.ID.Hex(), fields(t, `{"password":"password1"}`))
	requireValidation(t, err, "password")

	stored, err := env.store.FindByID(ctx, lead.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.IsLead)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	updated, err := env.users.UpdateProfile(ctx, user, fields(t, `{"name":"Bia","email":"BIA@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "Bia", updated.Name)
	assert.Equal(t, "bia@example.com", updated.Email)
	assert.True(t, updated.IsLead)
}

func TestUpdateProfile_RejectsWholeRequest(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, user, fields(t, `{"name":"Bia","cpf":"222"}`))
	assert.ErrorIs(t, err, ErrInvalidUpdates)

	stored, err := env.store.FindByID(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "111", stored.CPF)
	assert.Empty(t, stored.Name)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	other := signup("222", "secret12")
	other.Email = "taken@example.com"
	_, err := env.users.CreateUser(ctx, other)
	require.NoError(t, err)

	user, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, user, fields(t, `{"email":"taken@example.com"}`))
	requireValidation(t, err, "email")

	// Keeping one's own email is not a conflict.
	_, err = env.users.UpdateProfile(ctx, user, fields(t, `{"email":"mine@example.com"}`))
	require.NoError(t, err)
	_, err = env.users.UpdateProfile(ctx, user, fields(t, `{"email":"mine@example.com","age":5}`))
	require.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	deleted, err := env.users.DeleteUser(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)
	assert.Contains(t, env.cache.evicted, user.ID.Hex())

	_, err = env.users.DeleteUser(ctx, user.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByCPF(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	user, err := env.users.FindByCPF(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, "111", user.CPF)

	_, err = env.users.FindByCPF(ctx, "222")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.users.FindByCPF(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckCPF(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	status, err := env.users.CheckCPF(ctx, "111")
	require.NoError(t, err)
	assert.False(t, status.OK)
	assert.Nil(t, status.IsLead)

	lead, err := env.users.CreateUser(ctx, signup("111", "secret12"))
	require.NoError(t, err)

	status, err = env.users.CheckCPF(ctx, "111")
	require.NoError(t, err)
	assert.True(t, status.OK)
	require.NotNil(t, status.IsLead)
	assert.True(t, *status.IsLead)

	_, err = env.users.CompleteSignup(ctx, lead.ID.Hex(), fields(t, `{}`))
	require.NoError(t, err)

	status, err = env.users.CheckCPF(ctx, "111")
	require.NoError(t, err)
	assert.False(t, *status.IsLead)

	data, err := json.Marshal(CPFStatus{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false}`, string(data))
}
