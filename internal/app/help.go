package app

import "net/http"

const helpPage = `<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="utf-8">
<title>Sekretarz – dyspozytor czatu</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
code, pre { background: #f4f4f4; padding: 0.15rem 0.35rem; border-radius: 3px; }
</style>
</head>
<body>
<h1>Sekretarz – dyspozytor czatu</h1>
<p>Wyślij <code>POST /agent</code> z ciałem
<code>{"message": "...", "session_id": "..."}</code>.</p>
<h2>Komendy</h2>
<ul>
<li><code>/remember &lt;tekst&gt;</code> – zapisuje notatkę w pamięci sesji</li>
<li><code>/history</code> – pokazuje do 50 ostatnich wpisów sesji</li>
<li><code>/fetch &lt;url&gt;</code> – pobiera stronę i streszcza ją modelem</li>
</ul>
<p>Każda inna wiadomość trafia do modelu razem z ostatnią historią sesji.</p>
<h2>Webhook</h2>
<p><code>POST /webhook</code> przyjmuje dowolny JSON; pole
<code>interpret_with_gemini</code> włącza interpretację zdarzenia przez model.</p>
<h2>WebSocket</h2>
<p><code>GET /ws</code> – ta sama wymiana co <code>/agent</code>, po jednej
ramce JSON na wiadomość.</p>
</body>
</html>
`

func (s *ChatServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(helpPage))
}
