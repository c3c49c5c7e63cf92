package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Welcome to {{.Brand}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(to right, #6366f1, #8b5cf6, #ec4899); color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0;">
		<h1>Welcome to {{.Brand}}!</h1>
	</div>
	<div style="padding: 20px; border: 1px solid #ddd; border-top: none; border-radius: 0 0 5px 5px;">
		<p>Hello {{.Name}},</p>
		<p>Thank you for signing up! We're excited to have you join our community.</p>
		<p>If you have any questions or need assistance, feel free to reply to this email.</p>
		<p>Best regards,<br>The {{.Brand}} Team</p>
		{{if .SiteURL}}<a href="{{.SiteURL}}" style="display: inline-block; background: #6366f1; color: white; text-decoration: none; padding: 10px 20px; border-radius: 5px; margin-top: 15px;">Visit Our Website</a>{{end}}
	</div>
	<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666;">
		<p>&copy; {{.Year}} {{.Brand}}. All rights reserved.</p>
		<p>You're receiving this email because you signed up at {{.Brand}}.</p>
	</div>
</body>
</html>`))

// RenderWelcome renders the welcome mail body. Name is HTML escaped.
func RenderWelcome(brand, name, siteURL string) (string, error) {
	data := struct {
		Brand   string
		Name    string
		SiteURL string
		Year    int
	}{
		Brand:   brand,
		Name:    name,
		SiteURL: siteURL,
		Year:    time.Now().Year(),
	}

	var buf strings.Builder
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
