package produtorepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/domain"
	apperror "estoquemkt/internal/errors"
	"estoquemkt/internal/pkg/logger"
	"estoquemkt/internal/repository/produtorepo"
)

var colunas = []string{
	"id", "nome", "sku", "categoria_id", "categoria_nome", "quantidade_disponivel",
	"estoque_minimo", "ativo", "imagem_url", "image_1_url", "image_2_url", "image_3_url",
	"imagem_capa_index", "created_at", "updated_at",
}

func newRepo(t *testing.T) (*produtorepo.Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return produtorepo.NewRepository(db, nil, 5*time.Second, time.Minute, logger.NewLogger("error")), mock
}

func TestList_AplicaFiltrosEDerivaQuantidade(t *testing.T) {
	repo, mock := newRepo(t)
	ativo := true
	now := time.Now()

	rows := sqlmock.NewRows(colunas).
		AddRow("prod-1", "Banner 60x90", nil, "cat-1", "Banners", 12, 2, true, nil, nil, nil, nil, 1, now, now)
	mock.ExpectQuery("FROM estoque_produtos p").
		WithArgs("%banner%", "cat-1", true).
		WillReturnRows(rows)

	produtos, err := repo.List(context.Background(), domain.ProdutoFiltro{Search: "banner", CategoriaID: "cat-1", Ativo: &ativo})

	require.NoError(t, err)
	require.Len(t, produtos, 1)
	assert.Equal(t, 12, produtos[0].QuantidadeDisponivel)
	assert.Equal(t, "Banners", produtos[0].CategoriaNome)
	assert.Nil(t, produtos[0].SKU)
	require.NotNil(t, produtos[0].CategoriaID)
	assert.Equal(t, "cat-1", *produtos[0].CategoriaID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_SemResultadoRetornaListaVazia(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("FROM estoque_produtos p").WillReturnRows(sqlmock.NewRows(colunas))

	produtos, err := repo.List(context.Background(), domain.ProdutoFiltro{})

	require.NoError(t, err)
	assert.NotNil(t, produtos)
	assert.Empty(t, produtos)
}

func TestDesativar_ProdutoInexistente(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("UPDATE estoque_produtos SET ativo = FALSE").
		WithArgs(sqlmock.AnyArg(), "prod-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Desativar(context.Background(), "prod-x")

	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
