package handlers

import "net/http"

// Styles lists the catalog in display order.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Catalog.All())
}
