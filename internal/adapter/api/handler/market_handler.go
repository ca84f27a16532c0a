package handler

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/usecase"
	"souqbalady/pkg/response"
)

type MarketHandler struct {
	marketUseCase *usecase.MarketUseCase
}

func NewMarketHandler(marketUseCase *usecase.MarketUseCase) *MarketHandler {
	return &MarketHandler{
		marketUseCase: marketUseCase,
	}
}

// Prices serves ?category=vegetables|fruits&day=YYYY-MM-DD.
func (h *MarketHandler) Prices(c echo.Context) error {
	board, err := h.marketUseCase.ComputeAveragePrices(c.Request().Context(), c.QueryParam("category"), c.QueryParam("day"))
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, board)
}

func (h *MarketHandler) Catalog(c echo.Context) error {
	return response.Success(c, h.marketUseCase.Catalog())
}

func (h *MarketHandler) Dashboard(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	dashboard, err := h.marketUseCase.Dashboard(c.Request().Context(), session)
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, dashboard)
}
