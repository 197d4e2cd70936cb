package http

import (
	"embed"
	"html/template"
	"net/http"
	"slices"

	"github.com/fwojciec/cardgap"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"capitalize": cardgap.Capitalize,
}).ParseFS(templateFS, "templates/dashboard.html"))

type option struct {
	Value    string
	Selected bool
}

type dashboardView struct {
	Tags   []option
	Models []option
	TopK   int
	Report *cardgap.Report
	Error  string
}

// handleDashboard renders the dashboard for the selected tags and model.
// A model that is not in the selected corpus falls back to the first one,
// as happens when the tag selection changes.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{TopK: s.topK}
	status := http.StatusOK

	req, err := s.parseRequest(r)
	if err == nil {
		view.TopK = req.TopK
		var report *cardgap.Report
		report, err = s.reports.Report(r.Context(), req)
		if cardgap.ErrorCode(err) == cardgap.ENOTFOUND && req.ModelID != "" {
			req.ModelID = ""
			report, err = s.reports.Report(r.Context(), req)
		}
		if err == nil {
			s.metrics.observeReport(report)
			view.Report = report
		}
	}
	if err != nil {
		status = errorStatus(cardgap.ErrorCode(err))
		if status == http.StatusInternalServerError {
			s.logger.Error("render dashboard", "err", err)
		}
		view.Error = cardgap.ErrorMessage(err)
	}

	for _, tag := range s.tags {
		view.Tags = append(view.Tags, option{Value: tag, Selected: slices.Contains(req.Tags, tag)})
	}
	if view.Report != nil {
		for _, id := range view.Report.Models {
			view.Models = append(view.Models, option{Value: id, Selected: id == view.Report.ModelID})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := dashboardTmpl.Execute(w, view); err != nil {
		s.logger.Warn("execute dashboard template", "err", err)
	}
}
