package api

import (
	"net/http"

	"hermannm.dev/portfolio/population"
	"hermannm.dev/portfolio/sales"
)

func (api PortfolioAPI) GetPopulationOptions(res http.ResponseWriter, req *http.Request) {
	sendJSON(res, api.population.Options())
}

// Expects:
//   - body: JSON-encoded population.Selection
//
// Returns:
//   - JSON-encoded population.View
func (api PortfolioAPI) RenderPopulationDashboard(res http.ResponseWriter, req *http.Request) {
	var selection population.Selection
	if err := decodeJSON(res, req, &selection); err != nil {
		sendClientError(res, err, "Failed to parse dashboard selection.")
		return
	}

	view, err := api.population.Render(selection)
	if err != nil {
		sendError(res, err, "Failed to render population dashboard.")
		return
	}

	sendJSON(res, view)
}

// Returns the county geometry as a GeoJSON feature collection, for drawing the choropleth.
func (api PortfolioAPI) GetCounties(res http.ResponseWriter, req *http.Request) {
	sendJSON(res, api.population.Features())
}

func (api PortfolioAPI) GetSalesOptions(res http.ResponseWriter, req *http.Request) {
	sendJSON(res, api.sales.Options())
}

// Expects:
//   - body: JSON-encoded sales.Selection
//
// Returns:
//   - JSON-encoded sales.View
func (api PortfolioAPI) RenderSalesDashboard(res http.ResponseWriter, req *http.Request) {
	var selection sales.Selection
	if err := decodeJSON(res, req, &selection); err != nil {
		sendClientError(res, err, "Failed to parse dashboard selection.")
		return
	}

	view, err := api.sales.Render(selection)
	if err != nil {
		sendError(res, err, "Failed to render sales dashboard.")
		return
	}

	sendJSON(res, view)
}
