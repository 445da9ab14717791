package infra

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Mailer sends the end-of-shift closing report to the back office. Sending
// is best effort: a failed send never blocks the shift close itself.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	to   []string
}

func NewMailer(host string, port int, user, pass, from string, to []string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from, to: to}
}

// Configurado reports whether SMTP credentials were provided. Agents running
// without mail config skip the closing report silently.
func (m *Mailer) Configurado() bool {
	return m != nil && m.host != "" && len(m.to) > 0
}

// CierreCaja describes the closing report payload.
type CierreCaja struct {
	SesionID       string
	Usuario        string
	Apertura       string
	Cierre         string
	MontoInicial   string
	MontoEsperado  string
	MontoDeclarado string
	Desvio         string
	Clasificacion  string
	Observaciones  string
}

func (m *Mailer) EnviarCierre(c CierreCaja) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = m.to
	e.Subject = fmt.Sprintf("Cierre de caja %s - %s", c.SesionID, c.Clasificacion)

	var b strings.Builder
	fmt.Fprintf(&b, "Sesion: %s\n", c.SesionID)
	fmt.Fprintf(&b, "Usuario: %s\n", c.Usuario)
	fmt.Fprintf(&b, "Apertura: %s\n", c.Apertura)
	fmt.Fprintf(&b, "Cierre: %s\n", c.Cierre)
	fmt.Fprintf(&b, "Monto inicial: %s\n", c.MontoInicial)
	fmt.Fprintf(&b, "Esperado en efectivo: %s\n", c.MontoEsperado)
	fmt.Fprintf(&b, "Declarado: %s\n", c.MontoDeclarado)
	fmt.Fprintf(&b, "Desvio: %s (%s)\n", c.Desvio, c.Clasificacion)
	if c.Observaciones != "" {
		fmt.Fprintf(&b, "Observaciones: %s\n", c.Observaciones)
	}
	e.Text = []byte(b.String())

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := e.Send(addr, smtp.PlainAuth("", m.user, m.pass, m.host)); err != nil {
		return fmt.Errorf("mailer: enviar cierre: %w", err)
	}
	return nil
}
