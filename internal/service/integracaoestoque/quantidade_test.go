package integracaoestoque_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"estoquemkt/internal/domain"
	"estoquemkt/internal/service/integracaoestoque"
)

func intPtr(v int) *int { return &v }

func TestQuantidadePara(t *testing.T) {
	cases := []struct {
		nome   string
		status domain.Status
		item   domain.Item
		espera int
	}{
		{"pronto usa aprovada", domain.StatusProntoParaRetirar,
			domain.Item{QuantidadeSolicitada: 10, QuantidadeAprovada: intPtr(7)}, 7},
		{"pronto sem aprovada usa solicitada", domain.StatusProntoParaRetirar,
			domain.Item{QuantidadeSolicitada: 10}, 10},
		{"pronto ignora enviada", domain.StatusProntoParaRetirar,
			domain.Item{QuantidadeSolicitada: 10, QuantidadeEnviada: intPtr(3)}, 10},
		{"pronto aprovada zero reprova o item", domain.StatusProntoParaRetirar,
			domain.Item{QuantidadeSolicitada: 3, QuantidadeAprovada: intPtr(0)}, 0},
		{"enviado somente solicitada", domain.StatusEnviadoParaLoja,
			domain.Item{QuantidadeSolicitada: 10}, 10},
		{"enviado prefere enviada", domain.StatusEnviadoParaLoja,
			domain.Item{QuantidadeSolicitada: 10, QuantidadeAprovada: intPtr(8), QuantidadeEnviada: intPtr(6)}, 6},
		{"enviado com enviada zero cai para aprovada", domain.StatusEnviadoParaLoja,
			domain.Item{QuantidadeSolicitada: 10, QuantidadeAprovada: intPtr(8), QuantidadeEnviada: intPtr(0)}, 8},
		{"enviado sem enviada e aprovada zero reprova o item", domain.StatusEnviadoParaLoja,
			domain.Item{QuantidadeSolicitada: 10, QuantidadeAprovada: intPtr(0)}, 0},
		{"aplicado sem enviada e aprovada zero reprova o item", domain.StatusAplicado,
			domain.Item{QuantidadeSolicitada: 4, QuantidadeAprovada: intPtr(0)}, 0},
		{"aplicado cai para solicitada", domain.StatusAplicado,
			domain.Item{QuantidadeSolicitada: 4}, 4},
		{"aplicado prefere enviada", domain.StatusAplicado,
			domain.Item{QuantidadeSolicitada: 4, QuantidadeEnviada: intPtr(2)}, 2},
		{"status sem gatilho", domain.StatusCotacao,
			domain.Item{QuantidadeSolicitada: 4}, 0},
		{"status desconhecido", domain.Status("xyz"),
			domain.Item{QuantidadeSolicitada: 4}, 0},
	}

	for _, c := range cases {
		t.Run(c.nome, func(t *testing.T) {
			assert.Equal(t, c.espera, integracaoestoque.QuantidadePara(c.status, c.item))
		})
	}
}

func TestGatilho(t *testing.T) {
	tipo, ok := integracaoestoque.Gatilho(domain.StatusProntoParaRetirar)
	assert.True(t, ok)
	assert.Equal(t, domain.MovimentoEntrada, tipo)

	tipo, ok = integracaoestoque.Gatilho(domain.StatusEnviadoParaLoja)
	assert.True(t, ok)
	assert.Equal(t, domain.MovimentoTransferencia, tipo)

	tipo, ok = integracaoestoque.Gatilho(domain.StatusAplicado)
	assert.True(t, ok)
	assert.Equal(t, domain.MovimentoSaida, tipo)

	for _, s := range []domain.Status{domain.StatusSolicitacao, domain.StatusCotacao, domain.StatusAguardandoOC, domain.StatusEmProducao, domain.StatusCancelado} {
		_, ok := integracaoestoque.Gatilho(s)
		assert.False(t, ok, s)
	}
}

func TestObservacao(t *testing.T) {
	assert.Equal(t, "Entrada automática - Solicitação S1 - Status: Pronto para Retirar",
		integracaoestoque.Observacao(domain.MovimentoEntrada, "S1", domain.StatusProntoParaRetirar))
	assert.Equal(t, "Transferência automática - Solicitação S1 - Status: Enviado para Loja",
		integracaoestoque.Observacao(domain.MovimentoTransferencia, "S1", domain.StatusEnviadoParaLoja))
	assert.Equal(t, "Baixa definitiva - Solicitação S1 - Status: Instalado/Aplicado",
		integracaoestoque.Observacao(domain.MovimentoSaida, "S1", domain.StatusAplicado))
}
