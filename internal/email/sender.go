// Package email envía los emails transaccionales de SPOT (invitaciones).
package email

// Sender abstrae el envío de un email con cuerpo HTML y texto plano.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// Noop descarta los emails. Para dev sin SMTP configurado: la invitación se
// crea igual y el invite_url se devuelve en la respuesta.
type Noop struct{}

func (Noop) Send(to, subject, htmlBody, textBody string) error { return nil }
