package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estoquemkt/internal/pkg/cache"
)

// memClient guarda os valores em memória.
type memClient struct {
	dados map[string]string
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.dados[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.dados[key] = string(v)
	case string:
		m.dados[key] = v
	}
	return nil
}

func (m *memClient) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.dados, k)
	}
	return nil
}

func (m *memClient) GetInt(ctx context.Context, key string) (int, error) { return 0, nil }
func (m *memClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }

type local struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
}

func TestJSON_GravaELe(t *testing.T) {
	c := &memClient{dados: map[string]string{}}
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, c, "estoque:central", local{ID: "c1", Nome: "Estoque Central"}, time.Minute))

	var got local
	require.NoError(t, cache.GetJSON(ctx, c, "estoque:central", &got))
	assert.Equal(t, "Estoque Central", got.Nome)
}

func TestGetJSON_ChaveAusente(t *testing.T) {
	c := &memClient{dados: map[string]string{}}

	var got local
	err := cache.GetJSON(context.Background(), c, "nada", &got)

	assert.Equal(t, cache.ErrCacheMiss, err)
}

func TestGetJSON_ValorCorrompido(t *testing.T) {
	c := &memClient{dados: map[string]string{"x": "{não é json"}}

	var got local
	err := cache.GetJSON(context.Background(), c, "x", &got)

	require.Error(t, err)
	assert.NotEqual(t, cache.ErrCacheMiss, err)
}
