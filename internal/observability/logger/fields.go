package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar HTTP.

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// Campos estándar de dominio.

// Email crea un campo para el email del usuario.
// El email es el identificador natural en la allowlist; nunca loguear el token.
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// Role crea un campo para el rol resuelto.
func Role(v string) zap.Field {
	return zap.String("role", v)
}

// InviteStatus crea un campo para el estado de una invitación.
func InviteStatus(v string) zap.Field {
	return zap.String("invite_status", v)
}

// SessionID crea un campo para el session id del agente conversacional.
func SessionID(v string) zap.Field {
	return zap.String("session_id", v)
}

// KID crea un campo para el key id de JWKS.
func KID(v string) zap.Field {
	return zap.String("kid", v)
}

// Campos de trazabilidad interna.

// Layer identifica la capa (controller | service | store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Component identifica el componente dentro de la capa.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op identifica la operación.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Genéricos.

func String(k, v string) zap.Field { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }
func Bool(k string, v bool) zap.Field { return zap.Bool(k, v) }
func Any(k string, v any) zap.Field { return zap.Any(k, v) }
