package handler

import (
	"net/http"

	"github.com/yumyai/calypso/pkg/handler/request"
)

func (app *AppContext) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := app.DB.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []string{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (app *AppContext) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req request.GroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := app.DB.CreateGroup(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (app *AppContext) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.DB.DeleteGroup(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
