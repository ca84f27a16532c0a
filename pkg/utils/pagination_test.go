package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetLimit(t *testing.T) {
	cases := map[string]int{
		"":           DefaultLimit,
		"?limit=5":   5,
		"?limit=0":   DefaultLimit,
		"?limit=x":   DefaultLimit,
		"?limit=500": MaxLimit,
	}

	e := echo.New()
	for query, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/listings/sell-orders"+query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, want, GetLimit(c), query)
	}
}
