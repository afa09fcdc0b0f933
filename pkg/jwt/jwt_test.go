package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse_ConRole(t *testing.T) {
	in := pkgjwt.Identity{UserID: "u-1", TenantID: "t-1", Role: pkgjwt.RoleBodeguero}
	tok, err := pkgjwt.Generate(testSecret, in, "stock-ledger-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	out, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Identity{UserID: "u-1", TenantID: "t-1"}, "x", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secreto", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Identity{UserID: "u-1", TenantID: "t-1"}, "x", -5)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err)
}

func TestParse_SinEmpresa(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, pkgjwt.Identity{UserID: "u-1"}, "x", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "un token sin company_id no identifica tenant")
}

func TestSecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", pkgjwt.Identity{TenantID: "t"}, "x", 60)
	assert.Error(t, err)
	_, err = pkgjwt.Parse("", "abc")
	assert.Error(t, err)
}
