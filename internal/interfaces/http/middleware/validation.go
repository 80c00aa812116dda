package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupValidatorOnce sync.Once

// SetupValidator makes gin's validator report json (then form) tag names.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				switch name {
				case "-":
					return ""
				case "":
					continue
				}
				return name
			}
			return ""
		})
	})
}

// HandleValidationError aborts with 400 and one detail per failed field.
// Bodies that never reached validation get no details.
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, validationResponse(err, c.GetString(logger.GinRequestIDKey)))
}

func validationResponse(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return dto.NewValidationErrorResponse("Malformed request body", requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// Messages are shown next to form inputs, so they are in Spanish.
var fieldMessages = map[string]func(p string, text bool) string{
	"required": func(string, bool) string { return "Este campo es obligatorio" },
	"email":    func(string, bool) string { return "Formato de correo inválido" },
	"uuid":     func(string, bool) string { return "Identificador inválido" },
	"url":      func(string, bool) string { return "URL inválida" },
	"oneof":    func(p string, _ bool) string { return "Debe ser uno de: " + p },
	"gte":      func(p string, _ bool) string { return "Debe ser mayor o igual que " + p },
	"lte":      func(p string, _ bool) string { return "Debe ser menor o igual que " + p },
	"datetime": func(p string, _ bool) string { return "Fecha inválida, formato esperado " + p },
	"min": func(p string, text bool) string {
		if text {
			return "Debe tener al menos " + p + " caracteres"
		}
		return "Debe ser al menos " + p
	},
	"max": func(p string, text bool) string {
		if text {
			return "Debe tener como máximo " + p + " caracteres"
		}
		return "Debe ser como máximo " + p
	},
}

func fieldMessage(fe validator.FieldError) string {
	msg, ok := fieldMessages[fe.Tag()]
	if !ok {
		return "Valor inválido"
	}
	return msg(fe.Param(), fe.Kind() == reflect.String)
}
