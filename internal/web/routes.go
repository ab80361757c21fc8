package web

const (
	PathRoot          = "GET /{$}"
	PathHealth        = "GET /health"
	PathRegister      = "POST /auth/register"
	PathToken         = "POST /auth/token"
	PathMe            = "GET /auth/me"
	PathImageUpload   = "POST /images/upload"
	PathImageSearch   = "GET /images/search"
	PathImageHistory  = "GET /images/history"
	PathImageGet      = "GET /images/{id}"
	PathImageDownload = "GET /images/{id}/download"
	PathImageDelete   = "DELETE /images/{id}"
)
