package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Códigos SQLSTATE do PostgreSQL tratados pelos repositórios.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// NewPostgresDB inicializa e configura o pool de conexões com o PostgreSQL.
func NewPostgresDB(dataSourceName string) (*sql.DB, error) {
	// 1. Abrir a Conexão
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	// 2. Testar a Conexão Imediatamente
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	// 3. Connection Pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}

// IsForeignKeyViolation indica se o erro do driver é uma violação de chave estrangeira.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsUniqueViolation indica se o erro do driver é uma violação de unicidade.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsCheckViolation indica violação de CHECK (ex: quantidade >= 0 em estoque_saldos).
func IsCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// Filter monta cláusulas WHERE com placeholders numerados ($1, $2...).
type Filter struct {
	conds []string
	args  []interface{}
}

// Arg registra um argumento e devolve o placeholder correspondente.
func (f *Filter) Arg(v interface{}) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

// Add acrescenta uma condição. Use Arg para obter os placeholders.
func (f *Filter) Add(cond string) {
	f.conds = append(f.conds, cond)
}

// Where devolve " WHERE a AND b" ou string vazia.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// Args devolve os argumentos na ordem dos placeholders.
func (f *Filter) Args() []interface{} {
	return f.args
}
