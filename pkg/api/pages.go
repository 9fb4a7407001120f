package api

import (
	"html/template"
	"net/http"

	"watson-dash/pkg/model"
	"watson-dash/pkg/status"
)

// Endpoint describes one route for the /apis listing.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Integration is one row of the /integrations listing.
type Integration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

var endpoints = []Endpoint{
	{http.MethodGet, "/", "Dashboard"},
	{http.MethodGet, "/api/status", "Dependency snapshot"},
	{http.MethodGet, "/api/system/status", "Dependency snapshot (alias)"},
	{http.MethodGet, "/api/gauge-data", "Gauge feed contents and record count"},
	{http.MethodPost, "/api/gpt/create-action", "Forward a GPT action to the relay"},
	{http.MethodPost, "/api/gnis/sync", "Forward a GNIS sync payload to the relay"},
	{http.MethodGet, "/api/actions", "Forward journal"},
	{http.MethodGet, "/api/audit", "Operator audit log"},
	{http.MethodGet, "/api/events", "Websocket event stream"},
	{http.MethodGet, "/api/integrations", "Integration listing"},
	{http.MethodGet, "/api/endpoints", "This listing"},
	{http.MethodGet, "/healthz", "Liveness"},
}

func integrations(s model.Snapshot) []Integration {
	return []Integration{
		{model.DepGauge, "Gauge API feed file", s.Gauge.Status},
		{model.DepGNIS, "GNIS relay", s.GNIS.Status},
		{model.DepWatson, "Watson AI service", s.Watson.Status},
		{model.DepExternal, "Optional third-party API keys", s.External.Status},
	}
}

var pageTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{with .Snapshot}}
<p>System status: {{.Status}} | version {{.Version}} | {{.Runtime}}</p>
<p>Captured: {{.Timestamp.Format "2006-01-02T15:04:05Z07:00"}}</p>
<p>Gauge data: {{if .GaugeDataLoaded}}loaded ({{.Gauge.Records}} records){{else}}not found{{end}}</p>
{{end}}
{{if .Integrations}}
<table>
<tr><th>Integration</th><th>Description</th><th>Status</th></tr>
{{range .Integrations}}<tr><td>{{.Name}}</td><td>{{.Description}}</td><td>{{.Status}}</td></tr>
{{end}}</table>
{{end}}
{{if .Endpoints}}
<table>
<tr><th>Method</th><th>Path</th><th>Description</th></tr>
{{range .Endpoints}}<tr><td>{{.Method}}</td><td>{{.Path}}</td><td>{{.Description}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

type pageData struct {
	Title        string
	Snapshot     *model.Snapshot
	Integrations []Integration
	Endpoints    []Endpoint
}

func registerPageRoutes(mux *http.ServeMux, agg *status.Aggregator) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		s := agg.Snapshot()
		renderPage(w, pageData{Title: s.Platform, Snapshot: &s, Integrations: integrations(s)})
	})
	mux.HandleFunc("/integrations", func(w http.ResponseWriter, _ *http.Request) {
		renderPage(w, pageData{Title: "Integrations", Integrations: integrations(agg.Snapshot())})
	})
	mux.HandleFunc("/apis", func(w http.ResponseWriter, _ *http.Request) {
		renderPage(w, pageData{Title: "API endpoints", Endpoints: endpoints})
	})
	mux.HandleFunc("/api/integrations", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, integrations(agg.Snapshot()))
	})
	mux.HandleFunc("/api/endpoints", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, endpoints)
	})
}

func renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
