package models

// TenantTables lists the models created in every tenant partition. Parents
// come before the tables that reference them.
func TenantTables() []any {
	return []any{
		&CategoryModel{},
		&ProductModel{},
		&ProductVariationModel{},
		&ProductAdditionModel{},
		&TabModel{},
		&OrderModel{},
		&OrderItemModel{},
		&SaleModel{},
		&PaymentRecordModel{},
		&ExpenseCategoryModel{},
		&ExpenseModel{},
		&SettingModel{},
		&CustomerModel{},
	}
}

// TenantTableNames are the unprefixed names of TenantTables, in the same order
var TenantTableNames = []string{
	"categories",
	"products",
	"product_variations",
	"product_additions",
	"tabs",
	"orders",
	"order_items",
	"sales",
	"payment_records",
	"expense_categories",
	"expenses",
	"settings",
	"customers",
}

// Index is an index that struct tags cannot express per partition, either
// because it is partial or because it spans columns and needs a name derived
// from the partition's table name.
type Index struct {
	Suffix  string
	Table   string
	Columns []string
	Where   string
	Unique  bool
}

// TenantIndexes are created after TenantTables are migrated
var TenantIndexes = []Index{
	{
		// at most one open dine-in tab per table
		Suffix:  "open_table",
		Table:   "tabs",
		Columns: []string{"table_number"},
		Where:   "status = 'open' AND delivery_type = 'dine_in'",
		Unique:  true,
	},
	{
		// at most one generated instance per template per month
		Suffix:  "template_period",
		Table:   "expenses",
		Columns: []string{"recurring_template_id", "recurring_period"},
		Unique:  true,
	},
}
