package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth   = RouteApiV1 + "/auth"
	RouteLogin  = RouteAuth + "/login"
	RouteLogout = RouteAuth + "/logout"

	// self
	RouteMe         = RouteApiV1 + "/me"
	RouteMePassword = RouteMe + "/password"

	// files
	RouteFiles          = RouteApiV1 + "/files"
	RouteFile           = RouteFiles + "/:file_id"
	RouteFileContent    = RouteFile + "/content"
	RouteFileVisibility = RouteFile + "/visibility"

	// upload codes
	RouteToken       = RouteApiV1 + "/token"
	RouteTokenRenew  = RouteToken + "/renew"
	RouteTokenUpload = RouteToken + "/upload"

	// admin
	RouteUsers        = RouteApiV1 + "/users"
	RouteUser         = RouteUsers + "/:user_id"
	RouteUserLimits   = RouteUser + "/limits"
	RouteUserAdmin    = RouteUser + "/admin"
	RouteUserPassword = RouteUser + "/password"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
