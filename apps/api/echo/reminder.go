package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/plantcare/core/reminder"
	"github.com/trezcool/plantcare/core/user"
)

type reminderAPI struct {
	opts *Options
}

func registerReminderAPI(g *echo.Group, opts *Options) {
	api := reminderAPI{opts: opts}

	g.POST("/reminders/run", api.run, adminKeyMiddleware(opts.AdminKey))
	g.GET("/users/:id/plants", api.plants)
}

// run triggers a sweep and waits for its report.
func (api reminderAPI) run(ctx echo.Context) error {
	rep := api.opts.Sweeper.RunNow(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, rep)
}

type plantsResponse struct {
	User   user.User   `json:"user"`
	Plants interface{} `json:"plants"`
}

// plants lists a user's plants with their next watering date and due flag.
func (api reminderAPI) plants(ctx echo.Context) error {
	c := ctx.Request().Context()
	usr, err := api.opts.UserSvc.GetByID(c, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errHttpNotFound
		}
		return err
	}

	statuses, err := api.opts.PlantSvc.DueStatus(c, usr.ID, api.opts.Clock.Now(), api.opts.Location)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plantsResponse{User: usr, Plants: statuses})
}

var _ Sweeper = (*reminder.Scheduler)(nil)
