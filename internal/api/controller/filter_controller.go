package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/go_sam/internal/app"
	"github.com/bassista/go_sam/internal/view"
)

// FilterQuery is the query of GET /filter.
type FilterQuery struct {
	Kind string `form:"kind" validate:"required,oneof=games achievements"`
	Text string `form:"text" validate:"max=256"`
}

type FilterController struct {
	app      *app.App
	validate *validator.Validate
}

func NewFilterController(a *app.App) *FilterController {
	return &FilterController{app: a, validate: validator.New()}
}

// Filter handles GET /filter?kind=&text= and returns the rows left visible.
func (fc *FilterController) Filter(c *gin.Context) {
	var q FilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if err := fc.validate.Struct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := view.ParseListKind(q.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The filter message is queued behind this one; the second Do waits for it.
	ctx := c.Request.Context()
	if err := fc.app.Dispatcher.Do(ctx, func(view.View) { fc.app.OnFilter(kind, q.Text) }); err != nil {
		uiBusy(c, err)
		return
	}
	if err := fc.app.Dispatcher.Do(ctx, func(view.View) {}); err != nil {
		uiBusy(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind": kind.String(),
		"text": q.Text,
		"rows": fc.app.View.Rows(kind),
	})
}
