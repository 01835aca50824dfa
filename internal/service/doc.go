// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Services receive dependencies through constructor injection, apply
// transactional boundaries when operations span multiple repositories, and
// translate store-level errors into application-level sentinels that the API
// layer maps to HTTP status codes.
package service
