// Package domain contains the core business entities, value objects, and
// domain logic of the application: limudim, sections, review schedules,
// review points, and the schedule rule model. It represents the heart of
// the system, independent of any specific infrastructure or delivery
// mechanism.
package domain
