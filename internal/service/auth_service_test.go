package service

import (
	"context"
	"testing"

	"almapos/internal/config"
	"almapos/internal/dto"
	"almapos/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUsuarioRepo struct {
	usuarios map[string]*model.Usuario
}

func newFakeUsuarioRepo() *fakeUsuarioRepo {
	return &fakeUsuarioRepo{usuarios: make(map[string]*model.Usuario)}
}

func (f *fakeUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	copia := *u
	f.usuarios[u.Username] = &copia
	return nil
}

func (f *fakeUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range f.usuarios {
		if u.ID == id {
			copia := *u
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	u, ok := f.usuarios[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *u
	return &copia, nil
}

func (f *fakeUsuarioRepo) ListActivos(context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range f.usuarios {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	copia := *u
	f.usuarios[u.Username] = &copia
	return nil
}

type fakeConfigRepo struct {
	entradas map[string]string
}

func (f *fakeConfigRepo) Get(_ context.Context, clave string) (*model.ConfigEntry, error) {
	v, ok := f.entradas[clave]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.ConfigEntry{Clave: clave, Valor: v}, nil
}

func (f *fakeConfigRepo) Set(_ context.Context, clave, valor string) error {
	if f.entradas == nil {
		f.entradas = make(map[string]string)
	}
	f.entradas[clave] = valor
	return nil
}

func newAuthFixture(t *testing.T) (AuthService, *fakeUsuarioRepo, *fakeConfigRepo) {
	t.Helper()
	repo := newFakeUsuarioRepo()
	configRepo := &fakeConfigRepo{entradas: make(map[string]string)}
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 12}
	return NewAuthService(repo, configRepo, cfg), repo, configRepo
}

func hashPIN(t *testing.T, pin string) string {
	t.Helper()
	// Cost minimo: los tests no necesitan el costo de produccion.
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginConPINValido(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	require.NoError(t, repo.Create(context.Background(), &model.Usuario{
		Username: "ana", Nombre: "Ana", PINHash: hashPIN(t, "1234"),
		Rol: "cajero", Activo: true,
	}))

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana", PIN: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "ana", resp.User.Username)
	assert.Equal(t, 12*3600, resp.ExpiresIn)

	// El token lleva las claims que el middleware espera.
	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "ana", claims["username"])
	assert.Equal(t, "cajero", claims["rol"])
}

func TestLoginConPINIncorrecto(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	require.NoError(t, repo.Create(context.Background(), &model.Usuario{
		Username: "ana", Nombre: "Ana", PINHash: hashPIN(t, "1234"),
		Rol: "cajero", Activo: true,
	}))

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana", PIN: "9999"})
	assert.ErrorIs(t, err, ErrCredencialesInvalidas)
}

func TestLoginUsuarioInexistenteOInactivo(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "nadie", PIN: "1234"})
	assert.ErrorIs(t, err, ErrCredencialesInvalidas)

	require.NoError(t, repo.Create(context.Background(), &model.Usuario{
		Username: "baja", Nombre: "Baja", PINHash: hashPIN(t, "1234"),
		Rol: "cajero", Activo: false,
	}))
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "baja", PIN: "1234"})
	assert.ErrorIs(t, err, ErrCredencialesInvalidas)
}

func TestLoginConMasterPIN(t *testing.T) {
	svc, repo, configRepo := newAuthFixture(t)
	require.NoError(t, repo.Create(context.Background(), &model.Usuario{
		Username: "ana", Nombre: "Ana", PINHash: hashPIN(t, "1234"),
		Rol: "cajero", Activo: true,
	}))
	configRepo.entradas[model.ConfigMasterPIN] = hashPIN(t, "000000")

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana", PIN: "000000"})
	require.NoError(t, err)
	assert.Equal(t, "ana", resp.User.Username)
}

func TestCrearUsuarioHasheaElPIN(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)

	resp, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "luis", Nombre: "Luis", PIN: "5678", Rol: "supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, "supervisor", resp.Rol)
	assert.True(t, resp.Activo)

	guardado, err := repo.FindByUsername(context.Background(), "luis")
	require.NoError(t, err)
	assert.NotEqual(t, "5678", guardado.PINHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(guardado.PINHash), []byte("5678")))
}
