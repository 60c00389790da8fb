package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONComCampos(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput("debug", &buf)

	l.Info("Solicitação atualizada.", map[string]interface{}{"solicitacao_id": "abc", "status": "cotacao"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Solicitação atualizada.", entry["message"])
	assert.Equal(t, "abc", entry["solicitacao_id"])
	assert.Equal(t, "cotacao", entry["status"])
}

func TestLogger_RespeitaNivel(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput("warn", &buf)

	l.Debug("descartado", nil)
	l.Info("descartado", nil)
	assert.Zero(t, buf.Len())

	l.Error("falha", errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}

func TestLogger_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput("verbose", &buf)

	l.Debug("descartado", nil)
	assert.Zero(t, buf.Len())

	l.Info("registrado", nil)
	assert.Contains(t, buf.String(), "registrado")
}
