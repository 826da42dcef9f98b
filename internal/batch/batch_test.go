package batch_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/klauspost/compress/zip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/batch"
	mock_batch "github.com/ginjaninja78/rcdv-generator/internal/batch/mocks"
	"github.com/ginjaninja78/rcdv-generator/internal/money"
	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/types"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

func expense(order int64, traveler, category, value string) types.ExpenseRow {
	return types.ExpenseRow{
		Order:    order,
		Traveler: traveler,
		Role:     "Analista",
		Category: category,
		Amount:   decimal.NewNullDecimal(decimal.RequireFromString(value)),
		Event:    "Evento Teste",
		Period:   "01 a 02/02",
		Location: "NATAL",
	}
}

func newGenerator(t *testing.T, r batch.Renderer) *batch.Generator {
	t.Helper()
	f, err := money.NewFormatter("pt_BR")
	require.NoError(t, err)
	return batch.NewGenerator(r, summary.NewBuilder(f), zap.NewNop().Sugar())
}

func entries(t *testing.T, archive []byte) map[string]string {
	t.Helper()

	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	out := make(map[string]string)
	var order []string
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(content)
		order = append(order, f.Name)
	}
	out["__order__"] = ""
	for _, n := range order {
		out["__order__"] += n + ";"
	}
	return out
}

func TestGenerator_Generate(t *testing.T) {
	table := &types.Table{Rows: []types.ExpenseRow{
		expense(200, "Bia", "PASSAGEM", "10.00"),
		expense(100, "Ana", "HOSPEDAGEM", "50.00"),
		expense(200, "Caio", "HOSPEDAGEM", "5.50"),
	}}
	meta := summary.Metadata{Entity: summary.ResolveEntity("SESI"), Project: "P"}

	tests := []struct {
		name      string
		orders    []int64
		setup     func(m *mock_batch.MockRenderer)
		wantDocs  []string
		wantSkip  []int64
		wantOrder string
		wantErr   error
	}{
		{
			name: "one document per order in first-appearance order",
			setup: func(m *mock_batch.MockRenderer) {
				m.EXPECT().Extension().Return("docx")
				m.EXPECT().
					Render(gomock.Any(), types.VariantSocial, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ types.TemplateVariant, data types.RenderMap) ([]byte, error) {
						return []byte(data["numero_rcdv"].(string) + ":" + data["total_geral"].(string)), nil
					}).
					Times(2)
			},
			wantDocs:  []string{"200.docx", "100.docx"},
			wantOrder: "200.docx;100.docx;",
		},
		{
			name:   "order filter with unknown and repeated orders",
			orders: []int64{100, 999, 100},
			setup: func(m *mock_batch.MockRenderer) {
				m.EXPECT().Extension().Return("xlsx")
				m.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("x"), nil).Times(1)
			},
			wantDocs:  []string{"100.xlsx"},
			wantSkip:  []int64{999},
			wantOrder: "100.xlsx;",
		},
		{
			name:   "filter matching nothing",
			orders: []int64{7},
			setup: func(m *mock_batch.MockRenderer) {
				m.EXPECT().Extension().Return("docx")
			},
			wantErr: batch.ErrNoDocuments,
		},
		{
			name: "render failure aborts the batch",
			setup: func(m *mock_batch.MockRenderer) {
				m.EXPECT().Extension().Return("docx")
				m.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("template exploded"))
			},
			wantErr: errors.New("failed to render order 200: template exploded"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := mock_batch.NewMockRenderer(ctrl)
			tt.setup(m)

			var out bytes.Buffer
			got, err := newGenerator(t, m).Generate(context.Background(), batch.Request{
				Table:  table,
				Meta:   meta,
				Orders: tt.orders,
			}, &out)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, validation.ErrInvalidInput) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				assert.Zero(t, out.Len(), "nothing is written on failure")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDocs, got.Documents)
			assert.Equal(t, tt.wantSkip, got.Skipped)

			files := entries(t, out.Bytes())
			assert.Equal(t, tt.wantOrder, files["__order__"])
		})
	}
}

func TestGenerator_Generate_DocumentContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var captured types.RenderMap
	m := mock_batch.NewMockRenderer(ctrl)
	m.EXPECT().Extension().Return("docx")
	m.EXPECT().
		Render(gomock.Any(), types.VariantNational, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ types.TemplateVariant, data types.RenderMap) ([]byte, error) {
			captured = data
			return []byte("doc"), nil
		})

	table := &types.Table{Rows: []types.ExpenseRow{
		expense(100, "Ana", "HOSPEDAGEM", "50.00"),
		expense(100, "Ana", "HOSPEDAGEM", "75.25"),
		expense(100, "Ana", "PASSAGEM", "300.00"),
	}}
	meta := summary.Metadata{Entity: summary.ResolveEntity("SENAI")}

	var out bytes.Buffer
	got, err := newGenerator(t, m).Generate(context.Background(), batch.Request{Table: table, Meta: meta}, &out)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Stats.RowsProcessed)
	assert.Equal(t, 1, got.Stats.TravelersListed)
	assert.Equal(t, "425,25", captured["total_geral"])
	assert.Equal(t, "SERVIÇO NACIONAL DE APRENDIZAGEM INDUSTRIAL", captured["entidade"])
	assert.Equal(t, "doc", entries(t, out.Bytes())["100.docx"])
}

func TestGenerator_Generate_NoOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := newGenerator(t, mock_batch.NewMockRenderer(ctrl))

	_, err := g.Generate(context.Background(), batch.Request{Table: &types.Table{}}, io.Discard)
	assert.ErrorIs(t, err, batch.ErrNoOrders)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)

	_, err = g.Generate(context.Background(), batch.Request{}, io.Discard)
	assert.ErrorIs(t, err, batch.ErrNoOrders)
}

func TestGenerator_Generate_Canceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := mock_batch.NewMockRenderer(ctrl)
	m.EXPECT().Extension().Return("docx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := &types.Table{Rows: []types.ExpenseRow{expense(1, "Ana", "PASSAGEM", "1")}}
	_, err := newGenerator(t, m).Generate(ctx, batch.Request{Table: table}, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_InvalidCompressionLevel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f, err := money.NewFormatter("")
	require.NoError(t, err)
	g := batch.NewGenerator(mock_batch.NewMockRenderer(ctrl), summary.NewBuilder(f), zap.NewNop().Sugar(), batch.WithCompressionLevel(42))

	table := &types.Table{Rows: []types.ExpenseRow{expense(1, "Ana", "PASSAGEM", "1")}}
	_, err = g.Generate(context.Background(), batch.Request{Table: table}, io.Discard)
	assert.ErrorContains(t, err, "invalid compression level")
}
