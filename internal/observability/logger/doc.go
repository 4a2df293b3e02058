// Package logger provee un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En controllers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("invitation created", logger.Email(email))
//
// "dev" usa consola con colores, "prod" usa JSON. Nunca loguear tokens
// crudos ni secretos: los helpers de fields no incluyen ninguno a propósito.
package logger
