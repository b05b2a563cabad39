package web

import "html/template"

// Server-rendered pages. The visual shell is deliberately bare: the console
// front-end owns real presentation, these pages only carry the auth and
// tenant flows.

var basePage = `<!DOCTYPE html>
<html lang="nl">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{block "head" .}}{{end}}
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; background: #fafafa; color: #1a1a1a;
       display: flex; min-height: 100vh; align-items: center; justify-content: center; margin: 0; }
main { max-width: 28rem; text-align: center; padding: 2rem; }
h1 { font-size: 1.4rem; }
p { color: #555; }
a.button { display: inline-block; margin-top: 1rem; padding: .6rem 1.2rem; background: #ff6a00;
           color: #fff; border-radius: .4rem; text-decoration: none; }
ul { text-align: left; color: #555; }
</style>
</head>
<body>
<main>
{{block "content" .}}{{end}}
</main>
</body>
</html>`

var loginPage = template.Must(template.Must(template.New("login").Parse(basePage)).Parse(`
{{define "content"}}
<h1>Welkom bij {{.Product}}</h1>
<p>Log in met je LinkAI account om verder te gaan.</p>
<a class="button" href="{{.LoginURL}}">Inloggen met LinkAI</a>
<p>Je wordt doorgestuurd naar het LinkAI platform. Na succesvolle authenticatie kom je automatisch terug.</p>
{{end}}`))

// relayPage runs in the browser to recover tokens delivered in the URL
// fragment: fragments never reach the server, so the page reloads itself
// with the fragment re-encoded as a query parameter.
var relayPage = template.Must(template.Must(template.New("relay").Parse(basePage)).Parse(`
{{define "head"}}
<script>
(function () {
  var url = new URL(window.location.href);
  var fragment = window.location.hash ? window.location.hash.substring(1) : "";
  url.searchParams.set("fragment", fragment);
  url.hash = "";
  window.location.replace(url.toString());
})();
</script>
{{end}}
{{define "content"}}
<h1>Bezig met inloggen</h1>
<p>Een moment geduld...</p>
{{end}}`))

// statusPage shows the handshake outcome and then navigates via
// meta-refresh after the configured delay.
var statusPage = template.Must(template.Must(template.New("status").Parse(basePage)).Parse(`
{{define "head"}}
<meta http-equiv="refresh" content="{{.DelaySeconds}};url={{.Destination}}">
{{end}}
{{define "content"}}
<h1>{{.Heading}}</h1>
<p>{{.Message}}</p>
{{if .Failed}}<p>Je wordt automatisch doorgestuurd naar de login pagina...</p>{{end}}
{{end}}`))

var unauthorizedPage = template.Must(template.Must(template.New("unauthorized").Parse(basePage)).Parse(`
{{define "content"}}
<h1>Geen toegang</h1>
<p>Je bent niet geautoriseerd om {{.Product}} te gebruiken. Dit kan zijn omdat:</p>
<ul>
<li>Je account heeft geen toegang tot dit product</li>
<li>Je bedrijf heeft geen actief abonnement</li>
<li>Je sessie is verlopen</li>
</ul>
<a class="button" href="{{.LoginURL}}">Opnieuw inloggen</a>
<p>Vragen over toegang? Mail <a href="mailto:support@linkai.nl">support@linkai.nl</a>.</p>
{{end}}`))

var loadingPage = template.Must(template.Must(template.New("loading").Parse(basePage)).Parse(`
{{define "head"}}
<meta http-equiv="refresh" content="1">
{{end}}
{{define "content"}}
<h1>{{.Product}}</h1>
<p>Bezig met laden...</p>
{{end}}`))

var viewPage = template.Must(template.Must(template.New("view").Parse(basePage)).Parse(`
{{define "content"}}
<h1>{{.Product}}</h1>
<p>{{.SiteName}} &mdash; {{.View}}</p>
{{if .Sites}}
<form method="post" action="/tenant/switch">
<input type="hidden" name="current_path" value="{{.CurrentPath}}">
<select name="site_id">
{{range .Sites}}<option value="{{.ID}}"{{if eq .ID $.ActiveSiteID}} selected{{end}}>{{.Name}}</option>{{end}}
</select>
<button type="submit">Wissel website</button>
</form>
{{end}}
{{end}}`))
