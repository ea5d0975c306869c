// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Two kinds of tables exist:
//   - the tenant directory (tenant.go), which lives in the shared schema and is
//     opened through the root connection;
//   - the partition tables (TenantTables), created once per tenant namespace.
//     Their TableName methods go through the handle's naming strategy so the
//     namespace prefix is applied, e.g. "tenant_acme"."tabs".
package models
