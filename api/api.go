package api

import (
	"fmt"
	"net/http"

	"hermannm.dev/portfolio/contact"
	"hermannm.dev/portfolio/ocr"
	"hermannm.dev/portfolio/population"
	"hermannm.dev/portfolio/profile"
	"hermannm.dev/portfolio/sales"
	"hermannm.dev/portfolio/session"
)

type PortfolioAPI struct {
	population *population.Dashboard
	sales      *sales.Dashboard
	profile    profile.Profile
	contact    *contact.Client
	// Nil if image-to-text is not configured, in which case extraction fails with an upstream
	// error.
	extractor ocr.Extractor
	sessions  session.Store
	router    *http.ServeMux
	config    Config
}

type Config struct {
	Port string
	// Sets the Secure flag on session cookies.
	SecureCookies bool
}

type Services struct {
	Population *population.Dashboard
	Sales      *sales.Dashboard
	Profile    profile.Profile
	Contact    *contact.Client
	Extractor  ocr.Extractor
	Sessions   session.Store
}

func NewPortfolioAPI(services Services, router *http.ServeMux, config Config) PortfolioAPI {
	api := PortfolioAPI{
		population: services.Population,
		sales:      services.Sales,
		profile:    services.Profile,
		contact:    services.Contact,
		extractor:  services.Extractor,
		sessions:   services.Sessions,
		router:     router,
		config:     config,
	}

	api.router.HandleFunc("GET /api/health", api.Health)
	api.router.HandleFunc("GET /api/profile", api.GetProfile)
	api.router.HandleFunc("POST /api/contact", api.SubmitContactForm)

	api.router.HandleFunc("GET /api/population/options", api.GetPopulationOptions)
	api.router.HandleFunc("POST /api/population/dashboard", api.RenderPopulationDashboard)
	api.router.HandleFunc("GET /api/population/counties", api.GetCounties)

	api.router.HandleFunc("GET /api/sales/options", api.GetSalesOptions)
	api.router.HandleFunc("POST /api/sales/dashboard", api.RenderSalesDashboard)

	api.router.HandleFunc("POST /api/image-to-text/upload", api.UploadImage)
	api.router.HandleFunc("POST /api/image-to-text/extract", api.ExtractText)
	api.router.HandleFunc("GET /api/image-to-text/download", api.DownloadText)

	return api
}

func (api PortfolioAPI) ListenAndServe() error {
	return http.ListenAndServe(fmt.Sprintf(":%s", api.config.Port), api.router)
}

func (api PortfolioAPI) Health(res http.ResponseWriter, req *http.Request) {
	sendJSON(res, map[string]string{"status": "ok"})
}

func (api PortfolioAPI) GetProfile(res http.ResponseWriter, req *http.Request) {
	sendJSON(res, api.profile)
}
