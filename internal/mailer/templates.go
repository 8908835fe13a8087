package mailer

import (
	"bytes"
	"html/template"
	"time"
)

const OTPSubject = "Password reset code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <body>
    <p>Hello {{.Name}},</p>
    <p>Use the code below to reset your password:</p>
    <h2>{{.Code}}</h2>
    <p>The code expires in {{.Minutes}} minutes. If you did not ask for a reset, ignore this message.</p>
  </body>
</html>
`))

// RenderOTP returns the HTML body of a password-reset mail.
func RenderOTP(name, code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Name    string
		Code    string
		Minutes int
	}{name, code, int(ttl.Minutes())})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
