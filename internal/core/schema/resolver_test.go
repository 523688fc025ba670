package schema

import (
	"errors"
	"testing"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestMap_GrossPriority(t *testing.T) {
	m := NewResolver().Map([]string{"Data", "Totale contanti", "Totale POS", "Totale lordo", "Totale IVA"})

	require.Equal(t, 0, m[domain.RoleDate].Index)
	require.Equal(t, 1, m[domain.RoleCashTotal].Index)
	require.Equal(t, 2, m[domain.RoleElectronicTotal].Index)
	require.Equal(t, 3, m[domain.RoleGrossTotal].Index)
	require.Equal(t, "Totale lordo", m[domain.RoleGrossTotal].Label)
}

func TestMap_TrimsAndFoldsLabels(t *testing.T) {
	m := NewResolver().Map([]string{"  DATA ", " Metodo ", "Importo (€)"})
	require.Equal(t, "DATA", m[domain.RoleDate].Label)
	require.Equal(t, "Metodo", m[domain.RolePaymentMethod].Label)
	require.Equal(t, 2, m[domain.RoleAmount].Index)
	require.False(t, m.Has(domain.RoleTaxRate))
}

func TestMap_POSIsWholeWord(t *testing.T) {
	m := NewResolver().Map([]string{"Data", "Deposito", "Totale"})
	require.False(t, m.Has(domain.RoleElectronicTotal))
	require.Equal(t, 2, m[domain.RoleGrossTotal].Index)
}

func TestMap_POSExport(t *testing.T) {
	m := NewResolver().Map([]string{"Transaction ID", "Date", "Gross amount", "Fee"})
	require.Equal(t, 1, m[domain.RoleDate].Index)
	require.Equal(t, 2, m[domain.RoleAmount].Index)
}

func TestResolveLedger_HeaderBelowTitle(t *testing.T) {
	rows := [][]string{
		{"AZIENDA AGRICOLA"},
		{"Riepilogo mensile"},
		{},
		{"Periodo", "Gennaio 2024"},
		{},
		{"Data", "Totale", "POS", "Contanti"},
		{"01/01/2024", "140", "50", "90"},
	}
	res, err := NewResolver().ResolveLedger(rows, Requirement{
		Roles: []domain.ColumnRole{domain.RoleDate},
		AnyOf: [][]domain.ColumnRole{{domain.RoleCashTotal, domain.RoleElectronicTotal}, {domain.RoleGrossTotal}},
	})
	require.NoError(t, err)
	require.Equal(t, 5, res.HeaderRow)
	require.Equal(t, 3, res.Columns[domain.RoleCashTotal].Index)
	require.Equal(t, 2, res.Columns[domain.RoleElectronicTotal].Index)
	require.Equal(t, 1, res.Columns[domain.RoleGrossTotal].Index)
}

func TestResolveLedger_NoHeader(t *testing.T) {
	_, err := NewResolver().ResolveLedger([][]string{{"foo"}, {"bar"}}, Requirement{})
	var notFound *domain.ErrSchemaNotFound
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, domain.SourceLedgerSpreadsheet, notFound.Source)
}

func TestResolveMarket_AmountLabelWithTotale(t *testing.T) {
	rows := [][]string{{"Data", "Metodo", "Importo totale"}, {"01/01/2024", "POS", "12,00"}}
	res, err := NewResolver().ResolveMarket(rows, Requirement{Roles: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Columns[domain.RoleAmount].Index)
	require.Equal(t, "Importo totale", res.Columns[domain.RoleAmount].Label)
	require.False(t, res.Columns.Has(domain.RoleGrossTotal))
}

func TestResolveMarket_TaxRateWithoutSpace(t *testing.T) {
	rows := [][]string{{"Data", "IVA%", "Importo"}}
	res, err := NewResolver().ResolveMarket(rows, Requirement{Roles: []domain.ColumnRole{domain.RoleDate, domain.RoleTaxRate, domain.RoleAmount}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Columns[domain.RoleTaxRate].Index)
}

func TestResolvePOS_IgnoresLedgerTotals(t *testing.T) {
	rows := [][]string{{"Date", "Totale", "Gross amount"}}
	res, err := NewResolver().ResolvePOS(rows, Requirement{Roles: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Columns[domain.RoleAmount].Index)
	require.False(t, res.Columns.Has(domain.RoleGrossTotal))
}

func TestResolveMarket_MissingAmount(t *testing.T) {
	rows := [][]string{{"Data", "Metodo", "Note"}, {"01/01/2024", "POS", "x"}}
	_, err := NewResolver().ResolveMarket(rows, Requirement{Roles: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount}})
	var notFound *domain.ErrSchemaNotFound
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, domain.RoleAmount, notFound.Role)
	require.Equal(t, domain.SourceMarketCSV, notFound.Source)
}

func TestRequirement_AnyOf(t *testing.T) {
	req := Requirement{AnyOf: [][]domain.ColumnRole{{domain.RoleCashTotal, domain.RoleElectronicTotal}, {domain.RoleGrossTotal}}}

	require.NoError(t, req.Check(domain.ColumnMapping{domain.RoleGrossTotal: {}}, domain.SourceLedgerSpreadsheet))
	require.NoError(t, req.Check(domain.ColumnMapping{domain.RoleCashTotal: {}, domain.RoleElectronicTotal: {}}, domain.SourceLedgerSpreadsheet))
	require.Error(t, req.Check(domain.ColumnMapping{domain.RoleCashTotal: {}}, domain.SourceLedgerSpreadsheet))
}

func TestFindHeaderRow(t *testing.T) {
	idx, err := FindHeaderRow([][]string{{"titolo"}, {"", " DATA "}}, "Data", domain.SourceLedgerSpreadsheet)
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}
