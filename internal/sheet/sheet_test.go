package sheet_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rcdv-generator/internal/sheet"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

var modelHeaders = []interface{}{
	"Nº DA ORDEM", "NOME DO VIAJANTE", "CARGO", "RUBRICA",
	"VALOR UTILIZADO NO PROJETO", "EVENTO", "PERÍODO DA VIAGEM ", "LOCAL ",
}

// workbook builds an in-memory XLSX with the given rows under the header.
func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	all := append([][]interface{}{modelHeaders}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse_XLSX(t *testing.T) {
	data := workbook(t,
		[]interface{}{100, "Ana", "Coordenadora", "HOSPEDAGEM", 50.0, "Evento X", "01 A 03/03", "RECIFE"},
		[]interface{}{100, "Ana", "Coordenadora", "HOSPEDAGEM", 75.25, "Evento X", "01 A 03/03", "RECIFE"},
		[]interface{}{},
		[]interface{}{100, "Ana", "Coordenadora", "PASSAGEM", "300,00", "Evento X", "01 A 03/03", "RECIFE"},
		[]interface{}{200, "Bruno", "Analista", "AJUDA DE CUSTO", "abc", "Evento Y", "05/04", "NATAL"},
		[]interface{}{nil, "Sem ordem", "", "", 10, "", "", ""},
	)

	got, err := sheet.Parse(bytes.NewReader(data), "planilha.xlsx")
	require.NoError(t, err)

	assert.Equal(t, sheet.FormatXLSX, got.Format)
	assert.Equal(t, "planilha.xlsx", got.Source)
	require.Len(t, got.Table.Rows, 4)
	assert.Equal(t, []int64{100, 200}, got.Table.Orders())

	first := got.Table.Rows[0]
	assert.Equal(t, int64(100), first.Order)
	assert.Equal(t, "Ana", first.Traveler)
	assert.Equal(t, "Coordenadora", first.Role)
	assert.Equal(t, "HOSPEDAGEM", first.Category)
	assert.Equal(t, "50", first.Amount.Decimal.String())
	assert.Equal(t, "Evento X", first.Event)
	assert.Equal(t, "01 A 03/03", first.Period)
	assert.Equal(t, "RECIFE", first.Location)
	assert.Equal(t, 2, first.Line)

	assert.Equal(t, "75.25", got.Table.Rows[1].Amount.Decimal.String())
	assert.Equal(t, "300", got.Table.Rows[2].Amount.Decimal.String())
	assert.Equal(t, 5, got.Table.Rows[2].Line)
	assert.False(t, got.Table.Rows[3].Amount.Valid)

	require.Len(t, got.Warnings, 2)
	assert.Equal(t, 6, got.Warnings[0].Row)
	assert.Equal(t, "VALOR UTILIZADO NO PROJETO", got.Warnings[0].Column)
	assert.Equal(t, 7, got.Warnings[1].Row)
	assert.Contains(t, got.Warnings[1].Message, "no order number")
}

func TestParse_XLSX_MissingColumns(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nº DA ORDEM", "CARGO"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = sheet.Parse(bytes.NewReader(buf.Bytes()), "planilha.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)

	var missing *validation.MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Len(t, missing.Missing, 6)
}

func TestParse_XLSX_BadOrder(t *testing.T) {
	data := workbook(t,
		[]interface{}{"12A", "Ana", "x", "PASSAGEM", 1, "", "", ""},
	)

	_, err := sheet.Parse(bytes.NewReader(data), "planilha.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParse_CSV(t *testing.T) {
	input := "\xef\xbb\xbfNº DA ORDEM;NOME DO VIAJANTE;CARGO;RUBRICA;VALOR UTILIZADO NO PROJETO;EVENTO;PERÍODO DA VIAGEM ;LOCAL \n" +
		"7;Carla;Gerente;PASSAGEM;R$ 1.234,56;Feira;10 a 12/05;SÃO PAULO\n" +
		";;;;;;;\n" +
		"7;Dani;Técnica;HOSPEDAGEM;200;Feira;10 a 12/05;SÃO PAULO\n"

	got, err := sheet.Parse(strings.NewReader(input), "despesas.csv")
	require.NoError(t, err)

	assert.Equal(t, sheet.FormatCSV, got.Format)
	require.Len(t, got.Table.Rows, 2)
	assert.Equal(t, "1234.56", got.Table.Rows[0].Amount.Decimal.String())
	assert.Equal(t, "Técnica", got.Table.Rows[1].Role)
	assert.Equal(t, 4, got.Table.Rows[1].Line)
	assert.Empty(t, got.Warnings)
}

func TestParse_CSV_CommaDelimited(t *testing.T) {
	input := "ORDEM,VIAJANTE,CARGO,RUBRICA,VALOR,EVENTO,PERIODO,LOCAL\n" +
		"1,Ana,Analista,PASSAGEM,\"1,234.50\",E,P,L\n"

	got, err := sheet.Parse(strings.NewReader(input), "despesas.csv")
	require.NoError(t, err)
	require.Len(t, got.Table.Rows, 1)
	assert.Equal(t, "1234.5", got.Table.Rows[0].Amount.Decimal.String())
}

func TestParse_CSV_ThousandsNotation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "semicolon reads dot as grouping",
			input: "ORDEM;VIAJANTE;CARGO;RUBRICA;VALOR;EVENTO;PERIODO;LOCAL\n" +
				"1;Ana;Analista;PASSAGEM;1.234;E;P;L\n",
			want: "1234",
		},
		{
			name: "semicolon keeps two-digit decimals",
			input: "ORDEM;VIAJANTE;CARGO;RUBRICA;VALOR;EVENTO;PERIODO;LOCAL\n" +
				"1;Ana;Analista;PASSAGEM;75.25;E;P;L\n",
			want: "75.25",
		},
		{
			name: "comma reads dot as decimal",
			input: "ORDEM,VIAJANTE,CARGO,RUBRICA,VALOR,EVENTO,PERIODO,LOCAL\n" +
				"1,Ana,Analista,PASSAGEM,1.234,E,P,L\n",
			want: "1.234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sheet.Parse(strings.NewReader(tt.input), "despesas.csv")
			require.NoError(t, err)
			require.Len(t, got.Table.Rows, 1)
			assert.Equal(t, tt.want, got.Table.Rows[0].Amount.Decimal.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		filename string
	}{
		{name: "unsupported extension", data: "hello", filename: "notes.pdf"},
		{name: "corrupt workbook", data: "not a zip", filename: "planilha.xlsx"},
		{name: "empty csv", data: "", filename: "vazio.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sheet.Parse(strings.NewReader(tt.data), tt.filename)
			require.Error(t, err)
			assert.ErrorIs(t, err, validation.ErrInvalidInput)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	format, err := sheet.DetectFormat("anything.bin", []byte("PK\x03\x04rest"))
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatXLSX, format)

	format, err = sheet.DetectFormat("DADOS.CSV", []byte("a;b"))
	require.NoError(t, err)
	assert.Equal(t, sheet.FormatCSV, format)
}

func TestWriteModel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sheet.WriteModel(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "RCDV", f.GetSheetName(0))
	rows, err := f.GetRows("RCDV")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, validation.Headers(), rows[0])

	// A model workbook with no data rows parses to an empty table.
	f2 := bytes.Buffer{}
	require.NoError(t, sheet.WriteModel(&f2))
	got, err := sheet.Parse(&f2, sheet.ModelFileName)
	require.NoError(t, err)
	assert.Empty(t, got.Table.Rows)
}
