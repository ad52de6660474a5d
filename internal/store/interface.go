package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

// Queries is the full set of statements the engine runs. It is implemented
// both on top of the connection pool and on top of a single transaction.
type Queries interface {
	CreateTournament(ctx context.Context, t *models.Tournament) error
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)
	AddTournamentJudge(ctx context.Context, tournamentID, userID string, now int64) error
	RemoveTournamentJudge(ctx context.Context, tournamentID, userID string) error
	IsTournamentJudge(ctx context.Context, tournamentID, userID string) (bool, error)

	CreateRound(ctx context.Context, r *models.Round) error
	GetRound(ctx context.Context, id string) (*models.Round, error)
	ListTournamentRounds(ctx context.Context, tournamentID string) ([]models.Round, error)
	UpdateRoundStatus(ctx context.Context, id string, from, to models.RoundStatus) (bool, error)
	ReplaceRubricCriteria(ctx context.Context, roundID string, criteria []models.RubricCriterion) error
	ListRubricCriteria(ctx context.Context, roundID string) ([]models.RubricCriterion, error)

	CreateMatch(ctx context.Context, m *models.Match) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListRoundMatches(ctx context.Context, roundID string) ([]models.Match, error)
	UpdateMatchStatus(ctx context.Context, id string, from, to models.MatchStatus, now int64) (bool, error)
	CloseMatch(ctx context.Context, id string, status models.MatchStatus, winnerTrackID *string, now int64) (bool, error)
	AddMatchParticipant(ctx context.Context, p *models.MatchParticipant) error
	ListMatchParticipants(ctx context.Context, matchID string) ([]models.MatchParticipant, error)
	GetMatchParticipant(ctx context.Context, matchID, participantID string) (*models.MatchParticipant, error)
	SetParticipantResult(ctx context.Context, matchID, participantID string, status *models.ResultStatus) error
	IsEliminated(ctx context.Context, tournamentID, participantID string) (bool, error)
	GetRoundMatchForParticipant(ctx context.Context, roundID, participantID string) (*models.Match, error)
	UpsertMatchTrack(ctx context.Context, t *models.MatchTrack) error
	ListMatchTracks(ctx context.Context, matchID string) ([]models.MatchTrack, error)

	UpsertSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	GetParticipantSubmission(ctx context.Context, roundID, participantID string) (*models.Submission, error)
	ListRoundSubmissions(ctx context.Context, roundID string) ([]models.Submission, error)
	SetSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, now int64) error
	CreateMediaAsset(ctx context.Context, a *models.MediaAsset) error
	GetMediaAsset(ctx context.Context, id string) (*models.MediaAsset, error)

	GetActiveAssignment(ctx context.Context, judgeID string) (*models.JudgeAssignment, error)
	GetAssignment(ctx context.Context, judgeID, matchID string) (*models.JudgeAssignment, error)
	ListJudgeAssignments(ctx context.Context, judgeID string) ([]models.JudgeAssignment, error)
	NextCandidateMatch(ctx context.Context, judgeID string, now int64) (*models.Match, error)
	UpsertAssignment(ctx context.Context, a *models.JudgeAssignment) error
	UpdateAssignmentStatus(ctx context.Context, judgeID, matchID string, from, to models.AssignmentStatus, now int64) (bool, error)
	HasEvaluatedMatch(ctx context.Context, judgeID, matchID string) (bool, error)

	UpsertEvaluation(ctx context.Context, e *models.Evaluation) error
	GetEvaluation(ctx context.Context, judgeID string, targetType models.TargetType, targetID string) (*models.Evaluation, error)
	ListEvaluations(ctx context.Context, targetType models.TargetType, targetIDs []string) ([]models.Evaluation, error)
	ListAllEvaluations(ctx context.Context) ([]models.Evaluation, error)
	ListSubmissionTracks(ctx context.Context) ([]models.SubmissionTrack, error)

	ReplaceTrackScores(ctx context.Context, rows []models.TrackScore) error
	RebuildTournamentWins(ctx context.Context, now int64) error
	ListTrackScores(ctx context.Context, matchID string) ([]models.TrackScore, error)
	ListTournamentWins(ctx context.Context, tournamentID string) ([]models.TournamentWin, error)
}

type JudgingStore interface {
	Queries
	Close() error
	ApplyMigrations(dir string) error
	// InTx runs fn inside one transaction; any error rolls it back.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	*Querier
	DB        *sqlx.DB
	Converter func(string) string
}

func NewBaseStore(db *sqlx.DB, converter func(string) string, isConflict func(error) bool) BaseStore {
	return BaseStore{
		Querier:   &Querier{ext: db, conv: converter, isConflict: isConflict},
		DB:        db,
		Converter: converter,
	}
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *BaseStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	q := &Querier{ext: tx, conv: s.Converter, isConflict: s.Querier.isConflict}
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error.Printf("Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name order,
// translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", name)
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}
