package integracaoestoque

import "estoquemkt/internal/domain"

// fonte é um campo de quantidade do item na cadeia de precedência.
// zeroFinal: um zero explícito encerra a busca (aprovada = 0 é item reprovado na OC).
type fonte struct {
	valor     func(domain.Item) *int
	zeroFinal bool
}

var (
	enviada    = fonte{valor: func(it domain.Item) *int { return it.QuantidadeEnviada }}
	aprovada   = fonte{valor: func(it domain.Item) *int { return it.QuantidadeAprovada }, zeroFinal: true}
	solicitada = fonte{valor: func(it domain.Item) *int { return &it.QuantidadeSolicitada }}
)

// precedencia: o primeiro valor informado e diferente de zero vence.
var precedencia = map[domain.Status][]fonte{
	domain.StatusProntoParaRetirar: {aprovada, solicitada},
	domain.StatusEnviadoParaLoja:   {enviada, aprovada, solicitada},
	domain.StatusAplicado:          {enviada, aprovada, solicitada},
}

// QuantidadePara resolve a quantidade a lançar para o item ao entrar em status.
// Status sem efeito em estoque, ou item sem quantidade, resolve para 0.
func QuantidadePara(status domain.Status, it domain.Item) int {
	for _, f := range precedencia[status] {
		v := f.valor(it)
		if v == nil {
			continue
		}
		if *v != 0 || f.zeroFinal {
			return *v
		}
	}
	return 0
}

// gatilhos mapeia o status alvo para o tipo de movimento gerado.
var gatilhos = map[domain.Status]domain.TipoMovimento{
	domain.StatusProntoParaRetirar: domain.MovimentoEntrada,
	domain.StatusEnviadoParaLoja:   domain.MovimentoTransferencia,
	domain.StatusAplicado:          domain.MovimentoSaida,
}

// Gatilho indica se entrar em status gera movimentos e de qual tipo.
func Gatilho(status domain.Status) (domain.TipoMovimento, bool) {
	tipo, ok := gatilhos[status]
	return tipo, ok
}
