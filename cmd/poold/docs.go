package main

// General API documentation for swaggo. Generate a docs package from these
// annotations with swag init (github.com/swaggo/swag).
//
// @title           poold API
// @version         1.0
// @description     HTTP API for the per-model worker pool and inter-pool event router.
//
// @contact.name   poold maintainers
// @contact.url    https://github.com/your-org/poold
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
