package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
)

// permitidas replica o grafo esperado, independente da tabela interna.
var permitidas = map[domain.Status][]domain.Status{
	domain.StatusSolicitacao:       {domain.StatusCotacao, domain.StatusCancelado},
	domain.StatusCotacao:           {domain.StatusAguardandoOC, domain.StatusCancelado},
	domain.StatusAguardandoOC:      {domain.StatusEmProducao, domain.StatusCancelado},
	domain.StatusEmProducao:        {domain.StatusProntoParaRetirar, domain.StatusCancelado},
	domain.StatusProntoParaRetirar: {domain.StatusEnviadoParaLoja, domain.StatusCancelado},
	domain.StatusEnviadoParaLoja:   {domain.StatusAplicado, domain.StatusCancelado},
}

func TestPodeTransitar_TodosOsPares(t *testing.T) {
	for _, de := range domain.AllStatuses() {
		for _, para := range domain.AllStatuses() {
			esperado := false
			for _, p := range permitidas[de] {
				if p == para {
					esperado = true
				}
			}

			assert.Equal(t, esperado, domain.PodeTransitar(de, para), "%s -> %s", de, para)

			err := domain.ValidarTransicao(de, para)
			if esperado {
				assert.NoError(t, err)
			} else {
				assert.IsType(t, &apperror.InvalidTransitionError{}, err, "%s -> %s", de, para)
			}
		}
	}
}

func TestStatusTerminal_NaoTransitaNemParaSiMesmo(t *testing.T) {
	for _, terminal := range []domain.Status{domain.StatusAplicado, domain.StatusCancelado} {
		assert.True(t, terminal.IsTerminal())
		assert.Empty(t, terminal.Proximos())
		for _, para := range domain.AllStatuses() {
			assert.False(t, domain.PodeTransitar(terminal, para), "%s -> %s", terminal, para)
		}
	}
}

func TestStatusDesconhecido_SemTransicoes(t *testing.T) {
	desconhecido := domain.Status("arquivado")

	assert.False(t, desconhecido.Valid())
	assert.False(t, desconhecido.IsTerminal())
	assert.Empty(t, desconhecido.Proximos())
	for _, para := range domain.AllStatuses() {
		assert.False(t, domain.PodeTransitar(desconhecido, para))
	}
}

func TestProximos_RetornaCopia(t *testing.T) {
	next := domain.StatusSolicitacao.Proximos()
	next[0] = domain.StatusAplicado

	assert.True(t, domain.PodeTransitar(domain.StatusSolicitacao, domain.StatusCotacao))
	assert.False(t, domain.PodeTransitar(domain.StatusSolicitacao, domain.StatusAplicado))
}

func TestEditavel(t *testing.T) {
	assert.True(t, domain.StatusSolicitacao.Editavel())
	assert.True(t, domain.StatusCotacao.Editavel())
	assert.False(t, domain.StatusAguardandoOC.Editavel())
	assert.False(t, domain.StatusAplicado.Editavel())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Pronto para Retirar", domain.StatusProntoParaRetirar.Label())
	assert.Equal(t, "Instalado/Aplicado", domain.StatusAplicado.Label())
	assert.Equal(t, "xyz", domain.Status("xyz").Label())
}
