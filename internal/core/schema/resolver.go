// Package schema finds the header row of a loosely structured sheet and maps
// its columns to semantic roles.
package schema

import (
	"strings"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/core/tabular"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
)

// HeaderKeyword marks the header row of the ledger export.
const HeaderKeyword = "Data"

// MatchKind selects how a rule keyword is compared with a folded label.
type MatchKind int

const (
	Contains MatchKind = iota
	Equals
	// Word matches a whole word of the label, so "pos" finds "Totale POS"
	// but not "Deposito".
	Word
)

// Rule maps labels matching Keyword to Role.
type Rule struct {
	Role    domain.ColumnRole
	Keyword string
	Match   MatchKind
}

func (r Rule) matches(folded string) bool {
	kw := tabular.Fold(r.Keyword)
	switch r.Match {
	case Equals:
		return folded == kw
	case Word:
		for _, w := range strings.Fields(folded) {
			if w == kw {
				return true
			}
		}
		return false
	}
	return strings.Contains(folded, kw)
}

// DefaultRules is the priority-ordered rule list. Roles are resolved in the
// order they first appear; within a role the earlier keyword wins, so
// "Totale lordo" beats any other "totale..." column.
var DefaultRules = []Rule{
	{domain.RoleDate, "data", Contains},
	{domain.RoleDate, "date", Contains},
	{domain.RolePaymentMethod, "metodo", Contains},
	{domain.RolePaymentMethod, "pagamento", Contains},
	{domain.RoleTaxRate, "aliquota", Contains},
	{domain.RoleTaxRate, "iva %", Contains},
	{domain.RoleCashTotal, "contanti", Contains},
	{domain.RoleCashTotal, "cash", Contains},
	{domain.RoleElectronicTotal, "elettron", Contains},
	{domain.RoleElectronicTotal, "pos", Word},
	{domain.RoleElectronicTotal, "carta", Contains},
	{domain.RoleGrossTotal, "totale lordo", Contains},
	{domain.RoleGrossTotal, "totale corrispettivi", Contains},
	{domain.RoleGrossTotal, "totale", Contains},
	{domain.RoleAmount, "importo", Contains},
	{domain.RoleAmount, "gross amount", Contains},
	{domain.RoleAmount, "amount", Contains},
}

// Resolver applies a rule list to header rows.
type Resolver struct {
	rules []Rule
}

// NewResolver returns a resolver over rules, or DefaultRules when rules is empty.
func NewResolver(rules ...Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Resolver{rules: rules}
}

// FindHeaderRow returns the index of the first row holding a cell that equals
// or contains keyword, case-insensitively.
func FindHeaderRow(rows [][]string, keyword string, source domain.SourceKind) (int, error) {
	kw := strings.ToLower(keyword)
	for i, row := range rows {
		for _, cell := range row {
			c := strings.ToLower(strings.TrimSpace(cell))
			if c != "" && strings.Contains(c, kw) {
				return i, nil
			}
		}
	}
	return -1, &domain.ErrSchemaNotFound{Source: source, What: "header row containing \"" + keyword + "\" not found"}
}

// Map resolves the given roles, in order, against header. Without roles it
// resolves every role of the rule list in the order the roles first appear.
// A column taken by an earlier role is not offered to later ones.
func (r *Resolver) Map(header []string, roles ...domain.ColumnRole) domain.ColumnMapping {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = tabular.Fold(h)
	}
	if len(roles) == 0 {
		roles = r.roleOrder()
	}

	mapping := domain.ColumnMapping{}
	taken := make(map[int]bool)
	for _, role := range roles {
		if mapping.Has(role) {
			continue
		}
		if idx := r.pick(role, folded, taken); idx >= 0 {
			mapping[role] = domain.Column{Index: idx, Label: strings.TrimSpace(header[idx])}
			taken[idx] = true
		}
	}
	return mapping
}

func (r *Resolver) roleOrder() []domain.ColumnRole {
	var order []domain.ColumnRole
	seen := make(map[domain.ColumnRole]bool)
	for _, rule := range r.rules {
		if !seen[rule.Role] {
			seen[rule.Role] = true
			order = append(order, rule.Role)
		}
	}
	return order
}

func (r *Resolver) pick(role domain.ColumnRole, folded []string, taken map[int]bool) int {
	for _, rule := range r.rules {
		if rule.Role != role {
			continue
		}
		for idx, label := range folded {
			if !taken[idx] && label != "" && rule.matches(label) {
				return idx
			}
		}
	}
	return -1
}

// Requirement lists the roles a source must expose. AnyOf groups are
// alternatives: at least one group must be fully present.
type Requirement struct {
	Roles []domain.ColumnRole
	AnyOf [][]domain.ColumnRole
}

// Check returns *domain.ErrSchemaNotFound for the first missing role.
func (req Requirement) Check(m domain.ColumnMapping, source domain.SourceKind) error {
	for _, role := range req.Roles {
		if !m.Has(role) {
			return &domain.ErrSchemaNotFound{Source: source, Role: role}
		}
	}
	if len(req.AnyOf) == 0 {
		return nil
	}
	for _, group := range req.AnyOf {
		complete := true
		for _, role := range group {
			if !m.Has(role) {
				complete = false
				break
			}
		}
		if complete {
			return nil
		}
	}
	// Report the first role of the first group as the missing one.
	return &domain.ErrSchemaNotFound{Source: source, Role: req.AnyOf[0][0]}
}

// Roles each source kind reads. Own records and the POS export never carry
// ledger totals, so a label like "Importo totale" stays available to Amount.
var (
	MarketRoles = []domain.ColumnRole{domain.RoleDate, domain.RolePaymentMethod, domain.RoleTaxRate, domain.RoleAmount}
	POSRoles    = []domain.ColumnRole{domain.RoleDate, domain.RoleAmount}
	LedgerRoles = []domain.ColumnRole{domain.RoleDate, domain.RoleCashTotal, domain.RoleElectronicTotal, domain.RoleGrossTotal}
)

// Resolved is the outcome of resolving one sheet.
type Resolved struct {
	HeaderRow int
	Columns   domain.ColumnMapping
}

// ResolveMarket maps the own-records header, which is always the first row.
func (r *Resolver) ResolveMarket(rows [][]string, req Requirement) (Resolved, error) {
	return r.resolveAt(rows, 0, req, domain.SourceMarketCSV, MarketRoles)
}

// ResolvePOS maps the POS terminal export header, also on the first row.
func (r *Resolver) ResolvePOS(rows [][]string, req Requirement) (Resolved, error) {
	return r.resolveAt(rows, 0, req, domain.SourcePOSTerminal, POSRoles)
}

// ResolveLedger scans for the header row before mapping it.
func (r *Resolver) ResolveLedger(rows [][]string, req Requirement) (Resolved, error) {
	header, err := FindHeaderRow(rows, HeaderKeyword, domain.SourceLedgerSpreadsheet)
	if err != nil {
		return Resolved{}, err
	}
	return r.resolveAt(rows, header, req, domain.SourceLedgerSpreadsheet, LedgerRoles)
}

func (r *Resolver) resolveAt(rows [][]string, header int, req Requirement, source domain.SourceKind, roles []domain.ColumnRole) (Resolved, error) {
	if header >= len(rows) {
		return Resolved{}, &domain.ErrSchemaNotFound{Source: source, What: "empty file"}
	}
	m := r.Map(rows[header], roles...)
	if err := req.Check(m, source); err != nil {
		return Resolved{}, err
	}
	return Resolved{HeaderRow: header, Columns: m}, nil
}
