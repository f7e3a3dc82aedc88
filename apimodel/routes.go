package apimodel

// API routes shared by the client and the development server.
const (
	RouteProviderLogin    = "/auth/provider/login"
	RouteProviderLogout   = "/auth/provider/logout"
	RouteProviderRegister = "/auth/provider/register"
	RouteRefresh          = "/auth/refresh"
	RouteQueues           = "/queues/"
	RouteQueue            = "/queues/{code}"
	RouteQueueCreate      = "/queue/create"
)
