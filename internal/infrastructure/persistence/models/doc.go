// Package models contains GORM persistence models that map to database tables.
// Domain types stay free of ORM tags; each model converts to and from its domain type.
//
// Tables:
//   - requests: PaymentRequestModel
//   - settlements: SettlementModel
//   - projects: ProjectModel
//   - users: UserModel
//   - settings: SettingModel
package models
