package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/config"
	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

const expensesCSV = "Nº DA ORDEM;NOME DO VIAJANTE;CARGO;RUBRICA;VALOR UTILIZADO NO PROJETO;EVENTO;PERÍODO DA VIAGEM;LOCAL\n" +
	"100;Ana;Coordenadora;HOSPEDAGEM;50,00;Evento Feira;01 a 03/03;NATAL\n" +
	"100;Ana;Coordenadora;PASSAGEM;300,00;Evento Feira;01 a 03/03;NATAL\n" +
	"101;Bia;Analista;TAXI;20,00;Congresso;05/04;RECIFE\n"

// writeTemplate stores an xlsx form template in dir.
func writeTemplate(t *testing.T, dir, name string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"{{numero_rcdv}}", "{{entidade}}"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"{{pessoas.nome}}", "{{pessoas.total_individual}}"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"TOTAL", "{{total_geral}}"}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, name)))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Templates.Dir = t.TempDir()
	cfg.Templates.Renderer = config.RendererXlsx
	cfg.Templates.Social = "sesi.xlsx"
	cfg.Templates.National = "senai.xlsx"
	cfg.OutputDir = t.TempDir()
	writeTemplate(t, cfg.Templates.Dir, "sesi.xlsx")
	writeTemplate(t, cfg.Templates.Dir, "senai.xlsx")
	return cfg
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunGenerate(t *testing.T) {
	cfg := testConfig(t)
	gen, err := newGenerator(cfg, zap.NewNop())
	require.NoError(t, err)

	output := filepath.Join(cfg.OutputDir, "lote.zip")
	opts := generateOptions{
		Meta: summary.Metadata{
			Entity:    summary.ResolveEntity("SESI"),
			Project:   "Projeto X",
			IssueDate: summary.IssueDate{Time: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		},
		Output:     output,
		OutputDir:  cfg.OutputDir,
		NameFormat: cfg.ArchiveNameFormat,
	}

	var out bytes.Buffer
	input := writeInput(t, "despesas.csv", expensesCSV)
	require.NoError(t, runGenerate(context.Background(), gen, zap.NewNop(), []string{input}, opts, &out))
	assert.Contains(t, out.String(), "Successful:      1")

	zr, err := zip.OpenReader(output)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "100.xlsx", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	wb, err := excelize.OpenReader(rc)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"100", summary.EntitySocialName}, rows[0])
	assert.Equal(t, []string{"Ana", "350,00"}, rows[1])
	assert.Equal(t, []string{"TOTAL", "350,00"}, rows[2])
}

func TestRunGenerate_PartialFailure(t *testing.T) {
	cfg := testConfig(t)
	gen, err := newGenerator(cfg, zap.NewNop())
	require.NoError(t, err)

	opts := generateOptions{
		Meta:       summary.Metadata{Entity: summary.ResolveEntity("SENAI")},
		OutputDir:  cfg.OutputDir,
		NameFormat: "rcdv_{entity}.zip",
	}

	good := writeInput(t, "bom.csv", expensesCSV)
	bad := writeInput(t, "ruim.csv", "ORDEM;VIAJANTE\n1;Ana\n")

	var out bytes.Buffer
	err = runGenerate(context.Background(), gen, zap.NewNop(), []string{good, bad}, opts, &out)
	require.EqualError(t, err, "1 of 2 file(s) failed")
	assert.Contains(t, out.String(), "ruim.csv: missing columns")

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "bom_rcdv_SENAI.zip"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "ruim_rcdv_SENAI.zip"))
}

func TestRunGenerate_DryRun(t *testing.T) {
	cfg := testConfig(t)
	gen, err := newGenerator(cfg, zap.NewNop())
	require.NoError(t, err)

	opts := generateOptions{
		Meta:       summary.Metadata{Entity: summary.ResolveEntity("SESI")},
		Orders:     []int64{101},
		OutputDir:  cfg.OutputDir,
		NameFormat: cfg.ArchiveNameFormat,
		DryRun:     true,
	}

	var out bytes.Buffer
	input := writeInput(t, "despesas.csv", expensesCSV)
	require.NoError(t, runGenerate(context.Background(), gen, zap.NewNop(), []string{input}, opts, &out))
	assert.Contains(t, out.String(), "(dry run) (1 form(s))")

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveIssueDate(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		text    string
		strict  bool
		want    string
		wantErr bool
	}{
		{name: "empty means today", want: "02/01/2024"},
		{name: "iso date", raw: "2024-05-10", strict: true, want: "10/05/2024"},
		{name: "lenient fallback", raw: "ontem", want: "02/01/2024"},
		{name: "strict rejects", raw: "ontem", strict: true, wantErr: true},
		{name: "verbatim text", text: " março de 2024 ", strict: true, want: "março de 2024"},
		{name: "blank text is ignored", raw: "2024-05-10", text: "  ", want: "10/05/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := resolveIssueDate(tt.raw, tt.text, tt.strict, now, zap.NewNop())
			if tt.wantErr {
				assert.ErrorIs(t, err, validation.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, date.String())
		})
	}
}

func TestWriteModel(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "modelo.xlsx")
	require.NoError(t, writeModel("", dest))

	wb, err := excelize.OpenFile(dest)
	require.NoError(t, err)
	defer wb.Close()

	header, err := wb.GetCellValue(wb.GetSheetName(0), "A1")
	require.NoError(t, err)
	assert.Equal(t, "Nº DA ORDEM", header)

	copied := filepath.Join(t.TempDir(), "copia.xlsx")
	require.NoError(t, writeModel(dest, copied))
	a, _ := os.ReadFile(dest)
	b, _ := os.ReadFile(copied)
	assert.Equal(t, a, b)
}
