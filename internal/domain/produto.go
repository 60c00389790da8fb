package domain

import (
	"time"
)

// Categoria agrupa produtos. O nome é único sem diferenciar maiúsculas.
type Categoria struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Descricao string    `json:"descricao,omitempty"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoriaFiltro define os parâmetros de busca de categorias.
type CategoriaFiltro struct {
	Search string
	Ativo  *bool
}

// CategoriaInput é o payload de criação de categoria.
type CategoriaInput struct {
	Nome      string `json:"nome" validate:"required,min=1,max=120"`
	Descricao string `json:"descricao" validate:"max=500"`
	Ativo     *bool  `json:"ativo"`
}

// CategoriaUpdate é o payload parcial de atualização de categoria.
type CategoriaUpdate struct {
	Nome      *string `json:"nome" validate:"omitempty,min=1,max=120"`
	Descricao *string `json:"descricao" validate:"omitempty,max=500"`
	Ativo     *bool   `json:"ativo"`
}

// Produto representa um material de marketing do catálogo.
// QuantidadeDisponivel é a soma dos saldos do produto em todos os locais.
type Produto struct {
	ID                   string    `json:"id"`
	Nome                 string    `json:"nome"`
	SKU                  *string   `json:"sku,omitempty"`
	CategoriaID          *string   `json:"categoria_id,omitempty"`
	CategoriaNome        string    `json:"categoria,omitempty"`
	QuantidadeDisponivel int       `json:"quantidade_disponivel"`
	EstoqueMinimo        int       `json:"estoque_minimo"`
	Ativo                bool      `json:"ativo"`
	ImagemURL            *string   `json:"imagem_url,omitempty"`
	Image1URL            *string   `json:"image_1_url,omitempty"`
	Image2URL            *string   `json:"image_2_url,omitempty"`
	Image3URL            *string   `json:"image_3_url,omitempty"`
	ImagemCapaIndex      int       `json:"imagem_capa_index"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ProdutoFiltro define os parâmetros de busca de produtos.
type ProdutoFiltro struct {
	Search            string
	CategoriaID       string
	Categoria         string // nome, resolvido para categoria_id no serviço
	Ativo             *bool
	ComEstoqueLocalID string
}

// CreateProdutoInput é o payload de criação de produto.
// Uma das duas formas de categoria (categoria_id ou categoria) é obrigatória.
type CreateProdutoInput struct {
	Nome                 string  `json:"nome" validate:"required,min=1,max=200"`
	SKU                  *string `json:"sku" validate:"omitempty,max=80"`
	CategoriaID          *string `json:"categoria_id" validate:"omitempty,uuid"`
	Categoria            *string `json:"categoria" validate:"omitempty,min=1"`
	QuantidadeDisponivel int     `json:"quantidade_disponivel" validate:"min=0"`
	Ativo                *bool   `json:"ativo"`
	EstoqueMinimo        int     `json:"estoque_minimo" validate:"min=0"`
	ImagemURL            *string `json:"imagem_url" validate:"omitempty,url"`
	Image1URL            *string `json:"image_1_url" validate:"omitempty,url"`
	Image2URL            *string `json:"image_2_url" validate:"omitempty,url"`
	Image3URL            *string `json:"image_3_url" validate:"omitempty,url"`
	ImagemCapaIndex      int     `json:"imagem_capa_index" validate:"omitempty,min=1,max=3"`
}

// UpdateProdutoInput é o payload parcial de atualização de produto.
type UpdateProdutoInput struct {
	Nome            *string `json:"nome" validate:"omitempty,min=1,max=200"`
	SKU             *string `json:"sku" validate:"omitempty,max=80"`
	CategoriaID     *string `json:"categoria_id" validate:"omitempty,uuid"`
	Categoria       *string `json:"categoria" validate:"omitempty,min=1"`
	Ativo           *bool   `json:"ativo"`
	EstoqueMinimo   *int    `json:"estoque_minimo" validate:"omitempty,min=0"`
	ImagemURL       *string `json:"imagem_url" validate:"omitempty,url"`
	Image1URL       *string `json:"image_1_url" validate:"omitempty,url"`
	Image2URL       *string `json:"image_2_url" validate:"omitempty,url"`
	Image3URL       *string `json:"image_3_url" validate:"omitempty,url"`
	ImagemCapaIndex *int    `json:"imagem_capa_index" validate:"omitempty,min=1,max=3"`
}
