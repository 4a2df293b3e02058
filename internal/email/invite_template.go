package email

import "fmt"

const inviteSubject = "Invitación a SPOT"

// BuildInvite arma subject, HTML y texto plano del email de invitación.
func BuildInvite(to, inviteURL string, expDays int) (subject, htmlBody, textBody string) {
	htmlBody = fmt.Sprintf(`<html>
<body>
	<h2>Invitación a SPOT</h2>
	<p>Has sido invitado a SPOT (%s).</p>
	<p>Para activar tu acceso, haz clic en el siguiente enlace:</p>
	<p><a href="%s">%s</a></p>
	<p>Este enlace expira en %d día(s).</p>
	<p>Si no solicitaste esta invitación, puedes ignorar este email.</p>
</body>
</html>`, to, inviteURL, inviteURL, expDays)

	textBody = fmt.Sprintf(`Invitación a SPOT

Has sido invitado a SPOT (%s).

Para activar tu acceso, visita:
%s

Este enlace expira en %d día(s).

Si no solicitaste esta invitación, puedes ignorar este email.`, to, inviteURL, expDays)

	return inviteSubject, htmlBody, textBody
}
