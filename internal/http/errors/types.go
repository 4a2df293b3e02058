package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, no se expone al cliente
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail agrega detalle al error.
// Devuelve una COPIA para no mutar las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa). Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// ---------------------------------------------------------------------------------
// 400 Bad Request
// ---------------------------------------------------------------------------------

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "La solicitud contiene sintaxis inválida o parámetros faltantes.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInviteTokenInvalid es genérico a propósito: no distingue token
	// inexistente de token vencido para no filtrar qué emails existen.
	ErrInviteTokenInvalid = &AppError{
		Code:       "INVITE_TOKEN_INVALID",
		Message:    "Token inválido o expirado.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidRole = &AppError{
		Code:       "INVALID_ROLE",
		Message:    "Rol inválido. Debe ser 'Agent' o 'Supervisor'.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidStatus = &AppError{
		Code:       "INVALID_STATUS",
		Message:    "Estado inválido. Debe ser 'pending', 'active' o 'revoked'.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// ---------------------------------------------------------------------------------
// 401 Unauthorized - fallas de autenticación (transport/trust)
// ---------------------------------------------------------------------------------

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenMissing = &AppError{
		Code:       "TOKEN_MISSING",
		Message:    "No se proporcionó token de autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "El token de identidad es inválido o está expirado.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// ---------------------------------------------------------------------------------
// 403 Forbidden - fallas de autorización, cada una con razón propia.
// Nunca se colapsan con 401: el token es válido, el acceso no.
// ---------------------------------------------------------------------------------

var (
	ErrEmailDomainDenied = &AppError{
		Code:       "EMAIL_DOMAIN_DENIED",
		Message:    "El dominio del email no está permitido.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNoAllowedGroup = &AppError{
		Code:       "NO_ALLOWED_GROUP",
		Message:    "El usuario no pertenece a ningún grupo permitido.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotInvited = &AppError{
		Code:       "NOT_INVITED",
		Message:    "El usuario no está en la allowlist.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrInactiveInvitation = &AppError{
		Code:       "INACTIVE_INVITATION",
		Message:    "La invitación no está activa.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrRoleMismatch = &AppError{
		Code:       "ROLE_MISMATCH",
		Message:    "El rol del usuario no alcanza para este recurso.",
		HTTPStatus: http.StatusForbidden,
	}
)

// ---------------------------------------------------------------------------------
// 404 / 405
// ---------------------------------------------------------------------------------

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no fue encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "El usuario especificado no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "El método HTTP no está permitido para este recurso.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// ---------------------------------------------------------------------------------
// 429
// ---------------------------------------------------------------------------------

var ErrRateLimitExceeded = &AppError{
	Code:       "RATE_LIMIT_EXCEEDED",
	Message:    "Ha excedido el límite de solicitudes. Intente más tarde.",
	HTTPStatus: http.StatusTooManyRequests,
}

// ---------------------------------------------------------------------------------
// 5xx
// ---------------------------------------------------------------------------------

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrUpstreamUnavailable = &AppError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    "Un servicio externo no está disponible.",
		HTTPStatus: http.StatusBadGateway,
	}
)
