package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/art0tod/battle-rap-v2-sub000/internal/app"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSource) Standings(ctx context.Context, tournamentID string) ([]models.Standing, error) {
	args := m.Called(ctx, tournamentID)
	if rows := args.Get(0); rows != nil {
		return rows.([]models.Standing), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Update(ctx context.Context, sheetID, rng string, values [][]any) error {
	args := m.Called(ctx, sheetID, rng, values)
	return args.Error(0)
}

func TestExportWritesStandings(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	writer := new(MockWriter)

	rows := []models.Standing{
		{ParticipantID: "alice", Wins: 2, Rank: 1},
		{ParticipantID: "bob", Wins: 1, Rank: 2},
	}
	source.On("Refresh", ctx).Return(nil)
	source.On("Standings", ctx, "t1").Return(rows, nil)

	writer.On("Update", ctx, "sheet", "Standings!B2", [][]any{
		{"rank", "participant", "wins"},
		{1, "alice", 2},
		{2, "bob", 1},
	}).Return(nil)
	writer.On("Update", ctx, "sheet", "Standings!H1", [][]any{{"UPD: 15 January 12:00"}}).Return(nil)

	e := &GSheetExporter{
		source: source,
		now:    func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) },
	}
	err := e.Export(ctx, target{
		cfg: app.ExportConfig{
			TournamentID:  "t1",
			SheetID:       "sheet",
			SheetName:     "Standings",
			StartCell:     "B2",
			TimestampCell: "H1",
		},
		writer: writer,
	})
	require.NoError(t, err)

	source.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestExportStopsWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	source := new(MockSource)
	writer := new(MockWriter)
	source.On("Refresh", ctx).Return(errors.New("db down"))

	e := &GSheetExporter{source: source, now: time.Now}
	err := e.Export(ctx, target{cfg: app.ExportConfig{TournamentID: "t1"}, writer: writer})
	assert.Error(t, err)

	source.AssertNotCalled(t, "Standings", mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStandingsValuesEmpty(t *testing.T) {
	assert.Equal(t, [][]any{{"rank", "participant", "wins"}}, standingsValues(nil))
}
