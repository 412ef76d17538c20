package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/pos-terminal/api/responses"
	"github.com/angelmondragon/pos-terminal/api/validators"
	reportsvc "github.com/angelmondragon/pos-terminal/internal/reports"
	pkgerrors "github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// allTerminals widens the dashboard from the caller's terminal to the whole store.
const allTerminals = "all"

// ReportsDashboard summarizes the journal for the caller's terminal. Passing
// terminal_id selects another terminal, and terminal_id=all covers every terminal.
func ReportsDashboard(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		scope, err := terminalScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		terminalID := scope.TerminalID
		if raw := validators.SanitizeString(r.URL.Query().Get("terminal_id"), 64); raw != "" {
			terminalID = raw
			if strings.EqualFold(raw, allTerminals) {
				terminalID = ""
			}
		}

		dashboard, err := svc.Dashboard(r.Context(), reportsvc.DashboardRequest{
			TerminalID: terminalID,
			From:       from,
			To:         to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
