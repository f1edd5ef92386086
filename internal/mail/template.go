// Package mail renders and delivers account emails.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const otpSubject = "Your NutriCare verification code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2937;">
    <h2 style="color: #16a34a;">Verify your email</h2>
    <p>Use the code below to verify your NutriCare account.</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
  </body>
</html>
`))

// RenderOTP builds the subject and HTML body of a verification email
func RenderOTP(code string, validFor time.Duration) (subject, body string, err error) {
	var buf bytes.Buffer
	data := struct {
		Code    string
		Minutes int
	}{code, int(validFor / time.Minute)}
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render otp email: %w", err)
	}
	return otpSubject, buf.String(), nil
}
