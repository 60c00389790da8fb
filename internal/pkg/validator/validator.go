package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperror "estoquemkt/internal/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Mensagens usam o nome do campo no JSON, não o nome Go.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct valida as tags `validate` do payload e devolve um ValidationError
// com a lista de campos inválidos.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, mensagem(fe))
	}
	return apperror.NewValidationError(strings.Join(msgs, "; "))
}

// UUID valida um identificador vindo do path.
func UUID(field, value string) error {
	if err := validate.Var(value, "required,uuid"); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("%s deve ser um UUID válido", field))
	}
	return nil
}

func mensagem(fe validator.FieldError) string {
	campo := fe.Namespace()
	// Remove o nome do tipo raiz (ex: "CreateSolicitacaoInput.itens[0].produto_id").
	if i := strings.Index(campo, "."); i >= 0 {
		campo = campo[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", campo)
	case "uuid":
		return fmt.Sprintf("%s deve ser um UUID válido", campo)
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", campo, fe.Param())
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s", campo, fe.Param())
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s", campo, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um de [%s]", campo, fe.Param())
	case "url":
		return fmt.Sprintf("%s deve ser uma URL válida", campo)
	case "nefield":
		return fmt.Sprintf("%s deve ser diferente de %s", campo, fe.Param())
	default:
		return fmt.Sprintf("%s inválido (%s)", campo, fe.Tag())
	}
}
