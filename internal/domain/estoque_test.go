package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
)

func TestMovimentoValidate_PadraoOrigemDestino(t *testing.T) {
	cases := []struct {
		name    string
		tipo    domain.TipoMovimento
		origem  *string
		destino *string
		ok      bool
	}{
		{"entrada com destino", domain.MovimentoEntrada, nil, ptr("d"), true},
		{"entrada com origem", domain.MovimentoEntrada, ptr("o"), ptr("d"), false},
		{"entrada sem destino", domain.MovimentoEntrada, nil, nil, false},
		{"saida com origem", domain.MovimentoSaida, ptr("o"), nil, true},
		{"saida com destino", domain.MovimentoSaida, ptr("o"), ptr("d"), false},
		{"transferencia completa", domain.MovimentoTransferencia, ptr("o"), ptr("d"), true},
		{"transferencia sem destino", domain.MovimentoTransferencia, ptr("o"), nil, false},
		{"transferencia mesmo local", domain.MovimentoTransferencia, ptr("x"), ptr("x"), false},
		{"ajuste aumento", domain.MovimentoAjuste, nil, ptr("d"), true},
		{"ajuste reducao", domain.MovimentoAjuste, ptr("o"), nil, true},
		{"ajuste com os dois", domain.MovimentoAjuste, ptr("o"), ptr("d"), false},
		{"ajuste sem local", domain.MovimentoAjuste, nil, nil, false},
		{"tipo desconhecido", domain.TipoMovimento("doacao"), nil, ptr("d"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := domain.Movimento{ProdutoID: "p", Tipo: tc.tipo, Quantidade: 1, OrigemID: tc.origem, DestinoID: tc.destino}
			err := m.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.IsType(t, &apperror.ValidationError{}, err)
			}
		})
	}
}

func TestMovimentoValidate_QuantidadePositiva(t *testing.T) {
	for _, q := range []int{0, -3} {
		m := domain.Movimento{ProdutoID: "p", Tipo: domain.MovimentoEntrada, Quantidade: q, DestinoID: ptr("d")}
		assert.IsType(t, &apperror.ValidationError{}, m.Validate())
	}
}

func TestObservacaoAjuste(t *testing.T) {
	assert.Equal(t, "Ajuste: inventário. Quantidade anterior: 4, Nova: 7", domain.ObservacaoAjuste("inventário", 4, 7))
}

func TestRelatorioIntegracao_Contagem(t *testing.T) {
	r := domain.RelatorioIntegracao{Itens: []domain.ResultadoItem{
		{Resultado: domain.LancamentoPostado},
		{Resultado: domain.LancamentoPostado},
		{Resultado: domain.LancamentoIgnorado},
		{Resultado: domain.LancamentoFalhou},
	}}

	p, i, f := r.Contagem()
	assert.Equal(t, 2, p)
	assert.Equal(t, 1, i)
	assert.Equal(t, 1, f)
}
