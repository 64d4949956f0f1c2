package mail

import (
	"html/template"
	"strings"
	"time"
)

// LinkItem is one row in the download email.
type LinkItem struct {
	Vendor    string
	Filename  string
	URL       string
	ExpiresAt time.Time
}

var downloadTmpl = template.Must(template.New("download").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
<p>Hello {{.DealerName}},</p>
<p>New price files are ready for download:</p>
<ul>
{{- range .Links}}
<li><a href="{{.URL}}">{{.Vendor}} - {{.Filename}}</a> (valid until {{.ExpiresAt.Format "2 Jan 2006"}})</li>
{{- end}}
</ul>
<p>Each link works without a login and expires on the date shown.</p>
</body>
</html>`))

// RenderDownloadLinks builds the email body listing freshly issued links.
func RenderDownloadLinks(dealerName string, links []LinkItem) (string, error) {
	var b strings.Builder
	err := downloadTmpl.Execute(&b, struct {
		DealerName string
		Links      []LinkItem
	}{DealerName: dealerName, Links: links})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

var uploadTmpl = template.Must(template.New("upload").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
<p>A new price file was uploaded.</p>
<p>Vendor: <b>{{.Vendor}}</b><br>
File: {{.Filename}}{{if .Version}}<br>
Version: {{.Version}}{{end}}</p>
<p>Log in to the portal to review it.</p>
</body>
</html>`))

// RenderUploadNotice builds the admin notification for a partner upload.
func RenderUploadNotice(vendor, filename, version string) (string, error) {
	var b strings.Builder
	err := uploadTmpl.Execute(&b, struct {
		Vendor, Filename, Version string
	}{Vendor: vendor, Filename: filename, Version: version})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
<p>Hello {{.Name}},</p>
<p>Your dealer account is ready. Sign in with <b>{{.Email}}</b> at
<a href="{{.LoginURL}}">{{.LoginURL}}</a>.</p>
</body>
</html>`))

// RenderWelcome builds the email sent when a dealer account is created.
func RenderWelcome(name, email, loginURL string) (string, error) {
	var b strings.Builder
	err := welcomeTmpl.Execute(&b, struct {
		Name, Email, LoginURL string
	}{Name: name, Email: email, LoginURL: loginURL})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
