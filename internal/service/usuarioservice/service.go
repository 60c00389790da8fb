package usuarioservice

import (
	"context"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
)

// UsuarioRepository define o contrato de leitura do perfil de acesso.
type UsuarioRepository interface {
	FindByUserRef(ctx context.Context, userRef string) (domain.Caller, error)
}

// LojaRepository lista as lojas para compor o perfil.
type LojaRepository interface {
	List(ctx context.Context, ids []string, restrito bool) ([]domain.Loja, error)
}

// Service carrega o perfil do usuário autenticado.
type Service struct {
	repo   UsuarioRepository
	lojas  LojaRepository
	logger logger.Logger
}

// NewService cria uma nova instância de Service.
func NewService(repo UsuarioRepository, lojas LojaRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, lojas: lojas, logger: logger}
}

// LoadCaller monta o Caller a partir do sub do token. Sem perfil cadastrado o acesso é negado.
func (s *Service) LoadCaller(ctx context.Context, userID, email string) (domain.Caller, error) {
	caller, err := s.repo.FindByUserRef(ctx, userID)
	if err != nil {
		if _, ok := err.(*apperror.NotFoundError); ok {
			s.logger.Warn("Usuário autenticado sem perfil de acesso.", map[string]interface{}{"user_id": userID})
			return domain.Caller{}, apperror.NewForbiddenError("Usuário não encontrado no sistema.")
		}
		return domain.Caller{}, err
	}

	if caller.Email == "" {
		caller.Email = email
	}
	if caller.Nivel != domain.NivelDiretor && caller.Nivel != domain.NivelSupervisor {
		s.logger.Warn("Perfil com nível desconhecido.", map[string]interface{}{"user_id": userID, "nivel": caller.Nivel})
		return domain.Caller{}, apperror.NewForbiddenError("Nível de acesso não reconhecido.")
	}

	s.logger.Debug("Perfil carregado.", map[string]interface{}{"user_id": userID, "nivel": caller.Nivel, "lojas": len(caller.LojasVinculadas)})
	return caller, nil
}

// Me devolve o perfil com as lojas visíveis ao usuário.
func (s *Service) Me(ctx context.Context, caller domain.Caller) (domain.Perfil, error) {
	ids, restrito := caller.LojaScope()
	lojas, err := s.lojas.List(ctx, ids, restrito)
	if err != nil {
		return domain.Perfil{}, err
	}
	return domain.Perfil{Caller: caller, Lojas: lojas}, nil
}
