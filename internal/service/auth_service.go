package service

import (
	"context"
	"errors"
	"time"

	"almapos/internal/config"
	"almapos/internal/dto"
	"almapos/internal/model"
	"almapos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrCredencialesInvalidas = errors.New("credenciales invalidas")

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error)
}

type authService struct {
	repo       repository.UsuarioRepository
	configRepo repository.ConfigRepository
	cfg        *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, configRepo repository.ConfigRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, configRepo: configRepo, cfg: cfg}
}

// Login resolves the operator by username and verifies the PIN against the
// stored bcrypt hash. The replicated master PIN opens any account as a
// supervisor override, so a forgotten PIN never locks a register offline.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil || !user.Activo {
		return nil, ErrCredencialesInvalidas
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)) != nil {
		if !s.esMasterPIN(ctx, req.PIN) {
			return nil, ErrCredencialesInvalidas
		}
	}

	token, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		User: dto.UsuarioResponse{
			ID:       user.ID.String(),
			Username: user.Username,
			Nombre:   user.Nombre,
			Rol:      user.Rol,
			Activo:   user.Activo,
		},
	}, nil
}

func (s *authService) esMasterPIN(ctx context.Context, pin string) bool {
	entry, err := s.configRepo.Get(ctx, model.ConfigMasterPIN)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(entry.Valor), []byte(pin)) == nil
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), 12)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username: req.Username,
		Nombre:   req.Nombre,
		PINHash:  string(hash),
		Rol:      req.Rol,
		Activo:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &dto.UsuarioResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Nombre:   user.Nombre,
		Rol:      user.Rol,
		Activo:   user.Activo,
	}, nil
}

func (s *authService) ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i, u := range users {
		resp[i] = dto.UsuarioResponse{
			ID:       u.ID.String(),
			Username: u.Username,
			Nombre:   u.Nombre,
			Rol:      u.Rol,
			Activo:   u.Activo,
		}
	}
	return resp, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"rol":      user.Rol,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
