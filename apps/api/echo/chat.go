package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/services/chat"
)

type chatApi struct {
	asker chat.Asker
	deps  ServerDeps
}

func registerChatAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := chatApi{asker: deps.Chat, deps: deps}
	g.POST("/chat", api.ask, authed...)
}

func (api chatApi) ask(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	answer, err := api.asker.Ask(ctx.Request().Context(), data.Question)
	if err != nil {
		return errors.Wrap(err, "asking chat")
	}
	return ctx.JSON(http.StatusOK, ChatResponse{Answer: answer})
}
