package echoapi

import (
	"encoding/csv"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lusale/gpms/core/participant"
)

type participantApi struct {
	svc *participant.Service
}

func registerParticipantAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *participant.Service) {
	api := participantApi{svc: svc}

	rg := g.Group("/roster", jwt)
	rg.GET("", api.roster)
	rg.GET("/export", api.exportRoster)

	pg := g.Group("/participants", jwt)
	pg.POST("", api.create)

	// detail endpoints
	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/notes", api.queryCaseNotes)
	dg.POST("/notes", api.createCaseNote)
	dg.GET("/expenses", api.queryExpenses)
	dg.POST("/expenses", api.createExpense)
}

type (
	RosterFilterOptions struct {
		Cohorts   []string `json:"cohorts"`
		Phases    []string `json:"phases"`
		Advocates []string `json:"advocates,omitempty"` // admin only
		Statuses  []string `json:"statuses"`
	}

	RosterResponse struct {
		Role         string              `json:"role"`
		Participants []participant.Row   `json:"participants"`
		Filters      RosterFilterOptions `json:"filters"`
	}
)

// Handlers

func (api *participantApi) roster(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var qf participant.QueryFilter
	if err := ctx.Bind(&qf); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	role, roster, err := api.svc.LoadRoster(ctx.Request().Context(), principal, qf)
	if err != nil {
		return errors.Wrap(err, "loading roster")
	}

	rows := make([]participant.Row, 0, len(roster.Participants))
	for _, p := range roster.Participants {
		rows = append(rows, participant.ToRow(p, role))
	}

	return ctx.JSON(http.StatusOK, RosterResponse{
		Role:         role,
		Participants: rows,
		Filters: RosterFilterOptions{
			Cohorts:   roster.Cohorts,
			Phases:    participant.PhaseFilters,
			Advocates: roster.Advocates,
			Statuses:  roster.Statuses,
		},
	})
}

func (api *participantApi) exportRoster(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var qf participant.QueryFilter
	if err := ctx.Bind(&qf); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	role, roster, err := api.svc.LoadRoster(ctx.Request().Context(), principal, qf)
	if err != nil {
		return errors.Wrap(err, "loading roster")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="participants.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(participant.CSVHeader(role)); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, p := range roster.Participants {
		if err := w.Write(participant.CSVRow(p, role)); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing CSV")
}

func (api *participantApi) create(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data participant.NewParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticipant")
	}

	p, err := api.svc.Create(ctx.Request().Context(), principal, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *participantApi) retrieve(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	p, err := api.svc.Get(ctx.Request().Context(), principal, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) update(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data participant.UpdateParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParticipant")
	}

	p, err := api.svc.Update(ctx.Request().Context(), principal, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) destroy(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), principal, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *participantApi) queryCaseNotes(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	notes, err := api.svc.CaseNotes(ctx.Request().Context(), principal, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *participantApi) createCaseNote(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data participant.NewCaseNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCaseNote")
	}

	note, err := api.svc.AddCaseNote(ctx.Request().Context(), principal, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, note)
}

func (api *participantApi) queryExpenses(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	exps, err := api.svc.Expenses(ctx.Request().Context(), principal, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, exps)
}

func (api *participantApi) createExpense(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data participant.NewExpense
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExpense")
	}

	exp, err := api.svc.AddExpense(ctx.Request().Context(), principal, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, exp)
}
