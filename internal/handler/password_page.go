package handler

import (
	"html/template"
	"net/http"
)

var passwordPage = template.Must(template.New("password").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Password protected link</title>
{{if .SiteKey}}<script src="https://challenges.cloudflare.com/turnstile/v0/api.js" async defer></script>{{end}}
</head>
<body>
<form id="password-form">
  <label for="password">Password:</label>
  <input id="password" type="password" required>
  {{if .SiteKey}}<div class="cf-turnstile" data-sitekey="{{.SiteKey}}"></div>{{end}}
  <button type="submit">Open link</button>
</form>
<div id="error"></div>
<script>
document.getElementById('password-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  let token = '';
  if (typeof turnstile !== 'undefined') { token = turnstile.getResponse() || ''; }
  const errorDiv = document.getElementById('error');
  errorDiv.textContent = '';
  try {
    const resp = await fetch({{.VerifyPath}}, {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({password: document.getElementById('password').value, token: token})
    });
    const data = await resp.json();
    if (data.success) { window.location.href = data.url; return; }
    errorDiv.textContent = data.error || 'Wrong password';
  } catch (err) {
    errorDiv.textContent = 'Something went wrong, please retry';
  }
  if (typeof turnstile !== 'undefined') { turnstile.reset(); }
});
</script>
</body>
</html>
`))

type passwordPageData struct {
	SiteKey    string
	VerifyPath string
}

// renderPasswordPage пишет страницу ввода пароля для slug
func renderPasswordPage(w http.ResponseWriter, slug, siteKey string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return passwordPage.Execute(w, passwordPageData{
		SiteKey:    siteKey,
		VerifyPath: "/api/verify/" + slug,
	})
}
