package config

import (
	"strings"

	"github.com/mmdatafocus/dealer_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const tenantColumn = "business_id"

// TenantGuardPlugin scopes every model query to the request's business_id when the
// model has a business_id column. The treasury readers only read, so only the query
// and row callbacks are guarded.
//
// NOTE: Raw SQL is not covered. Raw queries must filter business_id themselves.
type TenantGuardPlugin struct{}

func NewTenantGuardPlugin() *TenantGuardPlugin { return &TenantGuardPlugin{} }

func (p *TenantGuardPlugin) Name() string { return "tenant_guard" }

func (p *TenantGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_guard:query", tenantGuardCallback); err != nil {
		return err
	}
	return db.Callback().Row().Before("gorm:row").Register("tenant_guard:row", tenantGuardCallback)
}

func tenantGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	businessID, _ := appctx.GetString(db.Statement.Context, appctx.ContextKeyBusinessId)
	if businessID == "" || !schemaHasTenantColumn(db.Statement.Schema) {
		return
	}
	if whereHasBusinessID(db.Statement.Clauses["WHERE"]) {
		return
	}
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  businessID,
			},
		},
	})
}

func schemaHasTenantColumn(s *schema.Schema) bool {
	if s == nil {
		return false
	}
	return s.LookUpField(tenantColumn) != nil
}

func whereHasBusinessID(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	return anyHasBusinessID(w.Exprs)
}

func anyHasBusinessID(exprs []clause.Expression) bool {
	for _, e := range exprs {
		if exprHasBusinessID(e) {
			return true
		}
	}
	return false
}

func exprHasBusinessID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isTenantColumn(v.Column)
	case clause.Neq:
		return isTenantColumn(v.Column)
	case clause.IN:
		return isTenantColumn(v.Column)
	case clause.AndConditions:
		return anyHasBusinessID(v.Exprs)
	case clause.OrConditions:
		return anyHasBusinessID(v.Exprs)
	case clause.Expr:
		// string conditions like Where("business_id = ?", id)
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	default:
		return false
	}
}

func isTenantColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, tenantColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, tenantColumn)
	default:
		return false
	}
}
